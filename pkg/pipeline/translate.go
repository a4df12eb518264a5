package pipeline

import (
	"audio2sign/pkg/assets"
	"audio2sign/pkg/models"
)

// Resolver resolves one word to clip URLs.
type Resolver interface {
	Resolve(word string) assets.Resolution
}

// BuildTranslation tokenizes text, capitalizes each word and resolves it.
// Videos is the flattened, in-order concatenation of every word's clips.
func BuildTranslation(text string, resolver Resolver) *models.Translation {
	t := models.NewTranslation(text)

	for _, token := range assets.Tokenize(text) {
		word := assets.Title(token)
		res := resolver.Resolve(token)

		t.FormattedWords = append(t.FormattedWords, word)
		t.Videos = append(t.Videos, res.Assets...)
		t.Missing = append(t.Missing, res.Missing...)
		t.Words = append(t.Words, models.WordVideos{
			Word:          word,
			Videos:        res.Assets,
			Fingerspelled: res.Fingerspelled,
			Missing:       res.Missing,
		})
	}
	return t
}
