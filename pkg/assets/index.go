package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"audio2sign/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Index is an in-memory set of clip filenames per asset directory. It is
// built once, then rebuilt on a fixed interval and, on the OS filesystem,
// whenever a watched directory changes.
type Index struct {
	fs     afero.Fs
	dirs   []string
	logger *logger.Logger

	mu      sync.RWMutex
	names   map[string]map[string]struct{}
	builtAt time.Time
}

var _ Lookup = (*Index)(nil)

func NewIndex(fs afero.Fs, dirs []string, log *logger.Logger) *Index {
	return &Index{
		fs:     fs,
		dirs:   dirs,
		logger: log,
		names:  make(map[string]map[string]struct{}),
	}
}

// Refresh rescans every directory. A missing directory indexes as empty.
func (i *Index) Refresh() error {
	names := make(map[string]map[string]struct{}, len(i.dirs))
	for _, dir := range i.dirs {
		set := make(map[string]struct{})
		entries, err := afero.ReadDir(i.fs, dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read asset dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				set[e.Name()] = struct{}{}
			}
		}
		names[dir] = set
	}

	i.mu.Lock()
	i.names = names
	i.builtAt = time.Now()
	i.mu.Unlock()
	return nil
}

func (i *Index) Has(dir, name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.names[dir][name]
	return ok
}

// Len is the total number of indexed files.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n := 0
	for _, set := range i.names {
		n += len(set)
	}
	return n
}

func (i *Index) BuiltAt() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.builtAt
}

// Run keeps the index fresh until ctx is done.
func (i *Index) Run(ctx context.Context, interval time.Duration) {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if _, ok := i.fs.(*afero.OsFs); ok {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			i.logger.Warnw("Asset Index: watcher unavailable, relying on interval refresh", "error", err)
		} else {
			defer watcher.Close()
			for _, dir := range i.dirs {
				if err := watcher.Add(dir); err != nil {
					i.logger.Warnw("Asset Index: cannot watch dir", "dir", dir, "error", err)
				}
			}
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.refreshAndLog("interval")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				i.refreshAndLog("fs event")
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			i.logger.Warnw("Asset Index: watcher error", "error", err)
		}
	}
}

func (i *Index) refreshAndLog(trigger string) {
	if err := i.Refresh(); err != nil {
		i.logger.Errorw("Asset Index: refresh failed", "trigger", trigger, "error", err)
		return
	}
	i.logger.Debugw("Asset Index: refreshed", "trigger", trigger, "files", i.Len())
}
