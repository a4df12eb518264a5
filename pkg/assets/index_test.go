package assets

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"audio2sign/pkg/logger"

	"github.com/spf13/afero"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestIndexRunRefreshesOnInterval(t *testing.T) {
	fs := newTestFS(t, map[string][]string{"/srv/static": {"Hello.mp4"}})
	idx := NewIndex(fs, []string{"/srv/static"}, logger.Nop())
	if err := idx.Refresh(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		idx.Run(ctx, 10*time.Millisecond)
	}()
	defer func() {
		cancel()
		<-done
	}()

	if idx.Has("/srv/static", "Thanks.mp4") {
		t.Fatal("clip indexed before it exists")
	}
	if err := afero.WriteFile(fs, "/srv/static/Thanks.mp4", []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return idx.Has("/srv/static", "Thanks.mp4") }) {
		t.Error("new clip never indexed")
	}
}

func TestIndexRunWatchesOSDirs(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndex(afero.NewOsFs(), []string{dir}, logger.Nop())
	if err := idx.Refresh(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Only a filesystem event can trigger a refresh within the test.
		idx.Run(ctx, time.Hour)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// The watcher is registered asynchronously, so keep recreating the clip
	// until an event lands.
	path := filepath.Join(dir, "Hello.mp4")
	fs := afero.NewOsFs()
	deadline := time.Now().Add(3 * time.Second)
	for !idx.Has(dir, "Hello.mp4") {
		if time.Now().After(deadline) {
			t.Fatal("clip created on disk was never indexed")
		}
		_ = fs.Remove(path)
		if err := afero.WriteFile(fs, path, []byte("clip"), 0o644); err != nil {
			t.Fatal(err)
		}
		waitFor(t, 100*time.Millisecond, func() bool { return idx.Has(dir, "Hello.mp4") })
	}

	if err := fs.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return !idx.Has(dir, "Hello.mp4") }) {
		t.Error("removed clip still indexed")
	}
}
