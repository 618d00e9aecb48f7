// Package textsearch implements the engine's inverted-index text search
// subsystem: BM25-scored full-text indexes, a name registry, a write-buffered
// and query-cached wrapper, a concurrency controller, a resource monitor,
// and a recovery manager for corrupted indexes.
package textsearch

import (
	"strings"
	"unicode"
)

// Token is one word produced by Analyze, with its position in the source
// text so callers can implement phrase proximity later.
type Token struct {
	Text     string
	Position int
}

// AnalyzerConfig tunes how Analyze breaks text into tokens.
type AnalyzerConfig struct {
	Lowercase       bool
	RemoveStopwords bool
}

// DefaultAnalyzerConfig matches the analyzer CREATE INDEX name TEXT ON ...
// uses when no options are given.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{Lowercase: true, RemoveStopwords: true}
}

// stopwords is a minimal, deliberately short list: generic function words
// only. Domain terms are never filtered, even common-looking ones like
// "query" or "graph".
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"with": true, "this": true, "but": true, "they": true,
	"we": true, "you": true, "your": true, "my": true, "their": true,
	"been": true, "do": true, "does": true, "did": true,
	"not": true, "no": true, "so": true, "than": true, "then": true,
}

// Analyze tokenizes text into lowercased, stopword-filtered tokens.
func Analyze(text string, cfg AnalyzerConfig) []Token {
	var tokens []Token
	start := -1
	pos := 0
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := text[start:end]
		if cfg.Lowercase {
			word = strings.ToLower(word)
		}
		if len(word) >= 2 && !(cfg.RemoveStopwords && stopwords[word]) {
			tokens = append(tokens, Token{Text: word, Position: pos})
			pos++
		}
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}
