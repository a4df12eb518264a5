package capture

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestPageRender(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewPage(fs, "/srv/static/videos.html", 2, false)

	if err := p.Init(time.UnixMilli(1)); err != nil {
		t.Fatal(err)
	}
	for i, word := range []string{"One", "Two", "Three"} {
		res := &Result{Text: word, Entries: []Entry{{Word: word, Videos: []string{"http://h/static/" + word + ".mp4"}}}}
		if err := p.Render(res, time.UnixMilli(int64(100+i))); err != nil {
			t.Fatal(err)
		}
	}

	data, err := afero.ReadFile(fs, "/srv/static/videos.html")
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	if !strings.Contains(html, fmt.Sprintf(`<div id="timestamp">%d</div>`, 102)) {
		t.Error("timestamp element missing or stale")
	}
	if strings.Contains(html, "One.mp4") {
		t.Error("oldest result not evicted")
	}
	three, two := strings.Index(html, "Three.mp4"), strings.Index(html, "Two.mp4")
	if three < 0 || two < 0 || three > two {
		t.Errorf("want newest first, Three at %d Two at %d", three, two)
	}

	entries, err := afero.ReadDir(fs, "/srv/static")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestPageEscapesText(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewPage(fs, "/videos.html", 5, true)
	if err := p.Render(&Result{Text: "<script>x</script>"}, time.Now()); err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(fs, "/videos.html")
	if strings.Contains(string(data), "<script>x</script>") {
		t.Error("transcript text was not escaped")
	}
}
