// Package analyzer normalizes natural-language text into index terms.
package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer lowercases, splits and filters text, optionally stemming
// English words.
type Tokenizer struct {
	stemmer   *PorterStemmer
	stopwords map[string]struct{}
}

func NewTokenizer(useStemming bool) *Tokenizer {
	t := &Tokenizer{stopwords: defaultStopwords()}
	if useStemming {
		t.stemmer = NewPorterStemmer()
	}
	return t
}

// Tokenize returns the index terms of text in order. Single-rune words and
// stopwords are dropped. Words outside ASCII are kept unstemmed.
func (t *Tokenizer) Tokenize(text string) []string {
	words := Words(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.stemmer != nil && isASCII(word) {
			word = t.stemmer.Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Words splits text into lowercase runs of letters and digits.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// defaultStopwords are common English function words. Negations and
// modal verbs stay: they carry the tone that etiquette passages describe.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "with", "this",
		"have", "had", "but", "they", "their", "she", "her", "his",
		"if", "or", "so", "been", "being", "which", "who", "whom",
		"what", "when", "where", "all", "each", "both", "than",
		"too", "very", "just", "also", "there", "these", "those",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
