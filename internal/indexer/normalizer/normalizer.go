// Package normalizer turns raw tokens into index terms by stripping
// punctuation and applying Unicode case folding.
package normalizer

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultPunctuation is the ASCII punctuation class removed from tokens.
const DefaultPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// ErrEmptyToken is returned when punctuation removal leaves nothing but
// whitespace.
var ErrEmptyToken = errors.New("token is empty after normalization")

// Normalizer strips a fixed punctuation set and folds case.
type Normalizer struct {
	punctuation string
}

// New creates a Normalizer removing the characters in punctuation. An empty
// string selects DefaultPunctuation.
func New(punctuation string) *Normalizer {
	if punctuation == "" {
		punctuation = DefaultPunctuation
	}
	return &Normalizer{punctuation: punctuation}
}

// Normalize applies punctuation removal and then case folding to token.
func (n *Normalizer) Normalize(token string, removePunctuation, caseFold bool) (string, error) {
	if removePunctuation {
		token = strings.Map(func(r rune) rune {
			if strings.ContainsRune(n.punctuation, r) {
				return -1
			}
			return r
		}, token)
		if strings.TrimSpace(token) == "" {
			return "", ErrEmptyToken
		}
	}
	if caseFold {
		// cases.Caser is stateful, so each call gets its own.
		token = cases.Fold().String(token)
	}
	return token, nil
}

// NormalizeTokens normalizes every token, dropping the ones rejected with
// ErrEmptyToken.
func (n *Normalizer) NormalizeTokens(tokens []string, removePunctuation, caseFold bool) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		normalized, err := n.Normalize(token, removePunctuation, caseFold)
		if err != nil {
			continue
		}
		out = append(out, normalized)
	}
	return out
}
