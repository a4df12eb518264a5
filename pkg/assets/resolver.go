package assets

import (
	"path"
	"strings"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
)

const clipExt = ".mp4"

// Resolution is the outcome of resolving one word.
type Resolution struct {
	Word          string
	Assets        []string
	Missing       []string
	Fingerspelled bool
}

// Resolver maps words to clip URLs. Roots are tried in order, so the first
// root is the primary one.
type Resolver struct {
	lookup Lookup
	roots  []config.AssetRoot
	logger *logger.Logger
}

func NewResolver(lookup Lookup, roots []config.AssetRoot, log *logger.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		roots:  roots,
		logger: log,
	}
}

// Resolve tries, first match wins: title case in each root, upper case in
// each root, then one clip per character of the upper-cased token. Characters
// without a clip are reported in Missing and left out of Assets.
func (r *Resolver) Resolve(word string) Resolution {
	token := NormalizeToken(word)
	res := Resolution{Word: token, Assets: []string{}, Missing: []string{}}
	if token == "" {
		return res
	}

	upper := strings.ToUpper(token)
	for _, candidate := range []string{Title(token), upper} {
		if asset, ok := r.find(candidate); ok {
			res.Assets = append(res.Assets, asset)
			r.logger.Debugw("Asset Resolver: whole word", "word", token, "asset", asset)
			return res
		}
	}

	res.Fingerspelled = true
	for _, c := range upper {
		letter := string(c)
		if asset, ok := r.find(letter); ok {
			res.Assets = append(res.Assets, asset)
			continue
		}
		res.Missing = append(res.Missing, letter)
	}
	if len(res.Missing) > 0 {
		r.logger.Debugw("Asset Resolver: missing letters", "word", token, "missing", res.Missing)
	}
	return res
}

func (r *Resolver) find(token string) (string, bool) {
	name := token + clipExt
	for _, root := range r.roots {
		if r.lookup.Has(root.Dir, name) {
			return path.Join("/", root.URLPrefix, name), true
		}
	}
	return "", false
}
