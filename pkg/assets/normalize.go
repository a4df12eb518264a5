package assets

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeToken strips everything except letters and digits.
func NormalizeToken(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize splits transcribed text into normalized word tokens, dropping
// tokens that are pure punctuation.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := NormalizeToken(f); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Title upper-cases the first letter and lower-cases the rest ("wORLD" -> "World").
func Title(word string) string {
	// Casers carry state, so one per call.
	return cases.Title(language.English).String(strings.ToLower(word))
}
