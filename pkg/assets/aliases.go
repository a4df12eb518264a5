package assets

import (
	"fmt"
	"io"
	"path/filepath"

	"audio2sign/pkg/logger"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Alias makes an existing clip available under another word.
type Alias struct {
	Source string
	Target string
}

// DefaultAliases widens coverage with near synonyms of clips that ship with
// the asset pack.
var DefaultAliases = []Alias{
	{"Happy.mp4", "Love.mp4"},
	{"Walk.mp4", "Going.mp4"},
	{"Walk.mp4", "Go.mp4"},
	{"Talk.mp4", "Say.mp4"},
	{"Talk.mp4", "Speak.mp4"},
	{"Talk.mp4", "Said.mp4"},
	{"Sound.mp4", "Hear.mp4"},
	{"See.mp4", "Look.mp4"},
	{"See.mp4", "Watch.mp4"},
	{"Keep.mp4", "Have.mp4"},
	{"Keep.mp4", "Has.mp4"},
	{"Learn.mp4", "Know.mp4"},
	{"I.mp4", "Im.mp4"},
	{"Stay.mp4", "Live.mp4"},
	{"Stay.mp4", "Stayed.mp4"},
	{"Stay.mp4", "Living.mp4"},
	{"Be.mp4", "Am.mp4"},
	{"Be.mp4", "Is.mp4"},
	{"Be.mp4", "Are.mp4"},
	{"Be.mp4", "Was.mp4"},
	{"Be.mp4", "Were.mp4"},
	{"Not.mp4", "Dont.mp4"},
	{"Not.mp4", "Doesnt.mp4"},
	{"Not.mp4", "Didnt.mp4"},
	{"Not.mp4", "No.mp4"},
	{"A.mp4", "An.mp4"},
	{"Great.mp4", "Awesome.mp4"},
	{"Our.mp4", "Their.mp4"},
	{"More.mp4", "Most.mp4"},
	{"Good.mp4", "Better.mp4"},
	{"Good.mp4", "Best.mp4"},
	{"Bad.mp4", "Worse.mp4"},
	{"Bad.mp4", "Worst.mp4"},
	{"Words.mp4", "Word.mp4"},
}

type AliasReport struct {
	Created        []string
	Skipped        []string
	MissingSources []string
}

// CreateAliases copies each source clip in dir to its alias name. Existing
// targets are never overwritten. A failed copy does not stop the others; all
// failures are returned together.
func CreateAliases(fs afero.Fs, dir string, aliases []Alias, log *logger.Logger) (AliasReport, error) {
	var (
		report AliasReport
		errs   error
	)
	missing := make(map[string]bool)

	for _, a := range aliases {
		src := filepath.Join(dir, a.Source)
		dst := filepath.Join(dir, a.Target)

		if ok, _ := afero.Exists(fs, src); !ok {
			if !missing[a.Source] {
				missing[a.Source] = true
				report.MissingSources = append(report.MissingSources, a.Source)
				log.Warnw("Aliases: source clip not found", "source", a.Source)
			}
			continue
		}
		if ok, _ := afero.Exists(fs, dst); ok {
			report.Skipped = append(report.Skipped, a.Target)
			log.Infow("Aliases: alias already exists", "alias", a.Target)
			continue
		}
		if err := copyFile(fs, src, dst); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("alias %s: %w", a.Target, err))
			log.Errorw("Aliases: copy failed", "alias", a.Target, "error", err)
			continue
		}
		report.Created = append(report.Created, a.Target)
		log.Infow("Aliases: created alias", "alias", a.Target, "source", a.Source)
	}

	return report, errs
}

// copyFile writes to a temporary file next to dst and renames it into place,
// so a failed copy never leaves a partial clip under the alias name.
func copyFile(fs afero.Fs, src, dst string) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := afero.TempFile(fs, filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmp := out.Name()
	defer func() {
		if err != nil {
			err = multierr.Append(err, fs.Remove(tmp))
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return multierr.Append(err, out.Close())
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, dst)
}
