// Package terms turns document text into index terms.
//
// A term is a lower-cased, NFKC-normalised, optionally stemmed token.
// Normalisation is deterministic: the same text always yields the same terms,
// which is what lets queries and documents meet on the same keys.
package terms

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.TermNormaliser = (*Normaliser)(nil)

// minTermLength is the shortest token, in runes, that is indexed.
const minTermLength = 2

// Normaliser produces terms from text.
// It is safe for concurrent use once constructed.
type Normaliser struct {
	stopwords map[string]struct{}
	stemming  bool
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithStemming enables or disables English stemming.
func WithStemming(enabled bool) Option {
	return func(n *Normaliser) {
		n.stemming = enabled
	}
}

// WithStopwords adds words to the built-in stop-word list.
func WithStopwords(words ...string) Option {
	return func(n *Normaliser) {
		for _, w := range words {
			w = fold(w)
			if w != "" {
				n.stopwords[w] = struct{}{}
			}
		}
	}
}

// New creates a normaliser with stemming enabled and the default stop-words.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		stopwords: make(map[string]struct{}, len(defaultStopwords)),
		stemming:  true,
	}
	for _, w := range defaultStopwords {
		n.stopwords[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Terms returns the terms of text in source order. Stop-words and tokens
// shorter than two runes are dropped; duplicates are kept so callers can
// count frequencies.
func (n *Normaliser) Terms(text string) []string {
	words := Tokenize(text)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if t, ok := n.Normalise(w); ok {
			terms = append(terms, t)
		}
	}
	return terms
}

// Normalise returns the term for a single word.
func (n *Normaliser) Normalise(word string) (string, bool) {
	w := fold(word)
	if utf8.RuneCountInString(w) < minTermLength {
		return "", false
	}
	if n.IsStopword(w) {
		return "", false
	}
	if n.stemming {
		w = english.Stem(w, false)
	}
	return w, w != ""
}

// IsStopword reports whether word is excluded from the index.
func (n *Normaliser) IsStopword(word string) bool {
	_, ok := n.stopwords[fold(word)]
	return ok
}

// Fingerprint returns a stable identifier of the stemming flag and the
// stop-word list, e.g. "stemming=true;stopwords=3f1c0a9b2e4d".
func (n *Normaliser) Fingerprint() string {
	words := make([]string, 0, len(n.stopwords))
	for w := range n.stopwords {
		words = append(words, w)
	}
	sort.Strings(words)

	sum := sha256.Sum256([]byte(strings.Join(words, "\n")))
	return fmt.Sprintf("stemming=%t;stopwords=%s", n.stemming, hex.EncodeToString(sum[:6]))
}

// Tokenize splits text on every rune that is neither a letter nor a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	})
}

func fold(word string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(word)))
}
