package capture

import (
	"strings"
	"unicode"

	"audio2sign/pkg/models"
)

const (
	placeholderText  = "[Speech detected]"
	placeholderWord  = "Speech"
	placeholderVideo = "/static/Speech.mp4"
)

type RefineOptions struct {
	FillerWords      []string
	BaseURL          string
	PlaceholderLevel float64
}

// Entry is one displayed word and its clips.
type Entry struct {
	Word   string
	Videos []string
}

// Result is a transcription ready to display.
type Result struct {
	Text        string
	Entries     []Entry
	Placeholder bool
}

// Refine turns a service response into what is displayed. It returns false
// when there is nothing worth showing.
func Refine(resp *models.TranscribeResponse, level float64, opts RefineOptions) (*Result, bool) {
	if resp == nil {
		return nil, false
	}

	if strings.TrimSpace(resp.Text) == "" {
		if level <= opts.PlaceholderLevel {
			return nil, false
		}
		return &Result{
			Text:        placeholderText,
			Entries:     []Entry{{Word: placeholderWord, Videos: []string{absoluteURL(opts.BaseURL, placeholderVideo)}}},
			Placeholder: true,
		}, true
	}

	fillers := make(map[string]bool, len(opts.FillerWords))
	for _, w := range opts.FillerWords {
		fillers[strings.ToLower(w)] = true
	}

	res := &Result{}
	words := make([]string, 0, len(resp.FormattedWords))
	for _, e := range entries(resp) {
		if fillers[strings.ToLower(strings.TrimFunc(e.Word, unicode.IsPunct))] {
			continue
		}
		videos := make([]string, 0, len(e.Videos))
		for _, v := range e.Videos {
			if v != "" {
				videos = append(videos, absoluteURL(opts.BaseURL, v))
			}
		}
		if len(videos) == 0 {
			continue
		}
		res.Entries = append(res.Entries, Entry{Word: e.Word, Videos: videos})
		words = append(words, e.Word)
	}
	if len(res.Entries) == 0 {
		return nil, false
	}
	res.Text = strings.Join(words, " ")
	return res, true
}

// entries pairs words with their clips. Without per-word data the flat lists
// are only paired when they line up one to one.
func entries(resp *models.TranscribeResponse) []Entry {
	if len(resp.Words) > 0 {
		out := make([]Entry, len(resp.Words))
		for i, w := range resp.Words {
			out[i] = Entry{Word: w.Word, Videos: w.Videos}
		}
		return out
	}
	out := make([]Entry, len(resp.FormattedWords))
	for i, w := range resp.FormattedWords {
		out[i] = Entry{Word: w}
		if len(resp.Videos) == len(resp.FormattedWords) {
			out[i].Videos = []string{resp.Videos[i]}
		}
	}
	return out
}

func absoluteURL(base, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(base, "/") + p
}
