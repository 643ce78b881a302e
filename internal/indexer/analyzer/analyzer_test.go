package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
)

func TestAnalyze(t *testing.T) {
	text := "The Red book, and THE blue book!"
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"all steps", Options{true, true, true}, []string{"the", "red", "book", "the", "blue", "book"}},
		{"no stop words", Options{false, true, true}, []string{"the", "red", "book", "and", "the", "blue", "book"}},
		{"no punctuation removal", Options{true, false, true}, []string{"the", "red", "book,", "the", "blue", "book!"}},
		{"no folding", Options{true, true, false}, []string{"The", "Red", "book", "THE", "blue", "book"}},
		{"raw", Options{}, []string{"The", "Red", "book,", "and", "THE", "blue", "book!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.opts).Analyze(text))
		})
	}
}

func TestAnalyzeInjectedSets(t *testing.T) {
	a := NewWith(Options{RemoveStopWords: true, RemovePunctuation: true, CaseFold: true},
		tokenizer.NewStopWords("book"), "!")
	assert.Equal(t, []string{"red", "book,"}, a.Analyze("Red! book, book"))
}

func TestAnalyzeEmpty(t *testing.T) {
	got := New(Options{true, true, true}).Analyze("  ... the ")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.AnalysisConfig{RemoveStopWords: true, CaseFold: true})
	assert.Equal(t, Options{RemoveStopWords: true, CaseFold: true}, opts)
	assert.Equal(t, opts, New(opts).Options())
}
