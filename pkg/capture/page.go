package capture

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Sign Language Translator</title>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: Arial, sans-serif; margin: 20px; background-color: #f0f0f0; }
.transcription { background-color: #fff; padding: 15px; border-radius: 8px; margin-bottom: 20px; font-size: 18px; }
.word-container { background-color: white; border-radius: 8px; padding: 20px; margin: 0 auto 15px; text-align: center; max-width: 600px; }
.word { font-weight: bold; font-size: 2em; color: #333; padding: 10px; }
video { width: 100%; max-width: 320px; height: auto; border-radius: 4px; margin-bottom: 10px; }
.source { text-align: center; font-weight: bold; margin-bottom: 20px; }
#timestamp { display: none; }
</style>
</head>
<body>
<div id="timestamp">{{.Timestamp}}</div>
<h2>Sign Language Translator</h2>
<div class="source">{{.Source}}</div>
{{range .Results}}
<div class="transcription">{{.Text}}</div>
{{range .Entries}}
<div class="word-container">
  <div class="word">{{.Word}}</div>
  {{range .Videos}}
  <video autoplay loop muted playsinline controls><source src="{{.}}" type="video/mp4"></video>
  {{end}}
</div>
{{end}}
{{else}}
<div class="transcription">Waiting for speech...</div>
{{end}}
<script>
(function () {
  var current = document.getElementById("timestamp").textContent;
  setInterval(function () {
    fetch(window.location.href, { cache: "no-store" })
      .then(function (r) { return r.text(); })
      .then(function (html) {
        var doc = new DOMParser().parseFromString(html, "text/html");
        var ts = doc.getElementById("timestamp");
        if (ts && ts.textContent !== current) {
          window.location.reload();
        }
      })
      .catch(function () {});
  }, 1000);
})();
</script>
</body>
</html>
`))

type pageData struct {
	Timestamp int64
	Source    string
	Results   []*Result
}

// Page renders the latest results to a single HTML file, newest first.
// It has a single writer and replaces the file atomically.
type Page struct {
	fs      afero.Fs
	path    string
	limit   int
	source  string
	results []*Result
}

func NewPage(fs afero.Fs, path string, limit int, allowMic bool) *Page {
	if limit < 1 {
		limit = 1
	}
	source := "System audio only (microphone blocked)"
	if allowMic {
		source = "System audio + microphone"
	}
	return &Page{fs: fs, path: path, limit: limit, source: source}
}

func (p *Page) Path() string {
	return p.path
}

// Init writes an empty page so the display has something to serve.
func (p *Page) Init(now time.Time) error {
	return p.write(now)
}

// Render adds res to the top of the page and rewrites it.
func (p *Page) Render(res *Result, now time.Time) error {
	p.results = append([]*Result{res}, p.results...)
	if len(p.results) > p.limit {
		p.results = p.results[:p.limit]
	}
	return p.write(now)
}

func (p *Page) write(now time.Time) error {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Timestamp: now.UnixMilli(),
		Source:    p.source,
		Results:   p.results,
	})
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := p.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create page dir: %w", err)
	}
	tmp, err := afero.TempFile(p.fs, dir, ".videos-*.html")
	if err != nil {
		return fmt.Errorf("failed to create temp page: %w", err)
	}
	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		p.fs.Remove(tmp.Name())
		if werr == nil {
			werr = cerr
		}
		return fmt.Errorf("failed to write page: %w", werr)
	}
	if err := p.fs.Rename(tmp.Name(), p.path); err != nil {
		p.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to replace page: %w", err)
	}
	return nil
}
