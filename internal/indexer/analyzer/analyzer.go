// Package analyzer chains the tokenizer and normalizer into the single text
// pipeline shared by index builds and queries.
package analyzer

import (
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/normalizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
)

// Options selects the pipeline steps. A query only overlaps an index built
// with the same Options.
type Options struct {
	RemoveStopWords   bool `json:"remove_stop_words"`
	RemovePunctuation bool `json:"remove_punctuation"`
	CaseFold          bool `json:"case_fold"`
}

// OptionsFromConfig maps the analysis config section to Options.
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		RemoveStopWords:   cfg.RemoveStopWords,
		RemovePunctuation: cfg.RemovePunctuation,
		CaseFold:          cfg.CaseFold,
	}
}

// Analyzer turns text into index terms.
type Analyzer struct {
	opts       Options
	tokenizer  *tokenizer.Tokenizer
	normalizer *normalizer.Normalizer
}

// New creates an Analyzer with the default stop-words and punctuation.
func New(opts Options) *Analyzer {
	return NewWith(opts, tokenizer.DefaultStopWords(), normalizer.DefaultPunctuation)
}

// NewWith creates an Analyzer with explicit stop-word and punctuation sets.
func NewWith(opts Options, stopWords tokenizer.StopWords, punctuation string) *Analyzer {
	return &Analyzer{
		opts:       opts,
		tokenizer:  tokenizer.New(stopWords),
		normalizer: normalizer.New(punctuation),
	}
}

// Options returns the pipeline configuration.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze tokenizes and normalizes text.
func (a *Analyzer) Analyze(text string) []string {
	tokens := a.tokenizer.Tokenize(text, a.opts.RemoveStopWords)
	return a.normalizer.NormalizeTokens(tokens, a.opts.RemovePunctuation, a.opts.CaseFold)
}
