// Package tokenizer provides text tokenisation for the search engine.
// It splits input on runs of whitespace and optionally removes stop-words.
// Matching against the stop-word set is exact and case-sensitive; it runs
// before any normalisation.
package tokenizer

import "strings"

// StopWords is an immutable set of words dropped by Tokenize.
type StopWords map[string]struct{}

// NewStopWords builds a StopWords set from a word list.
func NewStopWords(words ...string) StopWords {
	set := make(StopWords, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Contains reports whether word is a stop-word.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

var englishStopWords = []string{
	"ourselves", "hers", "between", "yourself", "but", "again",
	"there", "about", "once", "during", "out", "very", "having",
	"with", "they", "own", "an", "be", "some", "for", "do", "its",
	"yours", "such", "into", "of", "most", "itself", "other", "off",
	"is", "s", "am", "or", "who", "as", "from", "him", "each", "the",
	"themselves", "until", "below", "are", "we", "these", "your", "his",
	"through", "don", "nor", "me", "were", "her", "more", "himself", "this",
	"down", "should", "our", "their", "while", "above", "both", "up", "to",
	"ours", "had", "she", "all", "no", "when", "at", "any", "before", "them",
	"same", "and", "been", "have", "in", "will", "on", "does", "yourselves",
	"then", "that", "because", "what", "over", "why", "so", "can", "did",
	"not", "now", "under", "he", "you", "herself", "has", "just", "where",
	"too", "only", "myself", "which", "those", "i", "after", "few", "whom",
	"t", "being", "if", "theirs", "my", "against", "a", "by", "doing", "it",
	"how", "further", "was", "here", "than",
}

// DefaultStopWords returns a fresh copy of the English stop-word set.
func DefaultStopWords() StopWords {
	return NewStopWords(englishStopWords...)
}

// Tokenizer splits text into whitespace-delimited tokens.
type Tokenizer struct {
	stopWords StopWords
}

// New creates a Tokenizer filtering the given stop-words. A nil set filters
// nothing.
func New(stopWords StopWords) *Tokenizer {
	return &Tokenizer{stopWords: stopWords}
}

// Tokenize returns the tokens of text in order, duplicates preserved. When
// removeStopWords is set, tokens in the stop-word set are dropped.
func (t *Tokenizer) Tokenize(text string, removeStopWords bool) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if removeStopWords && t.stopWords.Contains(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
