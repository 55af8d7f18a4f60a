// Package tokenizer turns raw text into index terms: it lower-cases input,
// splits on non-alphanumeric boundaries, drops stop-words and applies the
// Snowball English stemmer. The same analysis must be used for documents and
// queries so that their terms line up.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token is one normalised term.
type Token struct {
	Term string
}

// Options controls the analysis chain.
type Options struct {
	Stem          bool
	KeepStopWords bool
}

// Analyzer applies one fixed set of Options.
type Analyzer struct {
	opts Options
}

func New(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Default stems and removes stop-words.
var Default = New(Options{Stem: true})

func (a *Analyzer) Tokenize(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words))
	for _, word := range words {
		if !a.opts.KeepStopWords {
			if _, isStop := stopWords[word]; isStop {
				continue
			}
		}
		term := word
		if a.opts.Stem {
			term = english.Stem(word, false)
		}
		if term == "" {
			continue
		}
		tokens = append(tokens, Token{Term: term})
	}
	return tokens
}

// Terms returns only the term strings of Tokenize, in order.
func (a *Analyzer) Terms(text string) []string {
	tokens := a.Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}
