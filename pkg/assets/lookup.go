package assets

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// Lookup answers whether a clip file exists in an asset directory.
type Lookup interface {
	Has(dir, name string) bool
}

// FSLookup stats the filesystem on every call.
type FSLookup struct {
	fs afero.Fs
}

var _ Lookup = (*FSLookup)(nil)

func NewFSLookup(fs afero.Fs) *FSLookup {
	return &FSLookup{fs: fs}
}

func (l *FSLookup) Has(dir, name string) bool {
	info, err := l.fs.Stat(filepath.Join(dir, name))
	if err != nil {
		return false
	}
	return !info.IsDir()
}
