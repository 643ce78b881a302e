// Package executor answers queries against a loaded, read-only index.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
)

// Hit is a ranked document with its source name.
type Hit struct {
	DocID int     `json:"doc_id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type SearchResult struct {
	Query     string `json:"query"`
	BuildID   string `json:"build_id"`
	TotalHits int    `json:"total_hits"`
	Results   []Hit  `json:"results"`
}

// Result is the completion message of QueryAsync.
type Result struct {
	Docs []ranker.ScoredDoc
	Err  error
}

// Executor scores queries against one build. It never modifies the index
// and is safe for concurrent use.
type Executor struct {
	analyzer *analyzer.Analyzer
	docs     index.DocumentMap
	inv      index.InvertedIndex
	buildID  string
	logger   *slog.Logger
}

// New creates an Executor over docs and inv. a must be configured like the
// analyzer the index was built with.
func New(a *analyzer.Analyzer, docs index.DocumentMap, inv index.InvertedIndex) *Executor {
	return &Executor{
		analyzer: a,
		docs:     docs,
		inv:      inv,
		logger:   logger.WithComponent("query-executor"),
	}
}

// Load reads the manifest, document map, and inverted index from dir and
// returns an Executor whose analyzer uses the options recorded at build time.
// Only artifacts in the manifest's format are read.
func Load(store segment.FileStore, dir string) (*Executor, error) {
	r, manifest, err := segment.Open(store, dir)
	if err != nil {
		return nil, err
	}
	docs, err := r.ReadDocumentMap()
	if err != nil {
		return nil, err
	}
	inv, err := r.ReadInverted()
	if err != nil {
		return nil, err
	}
	e := New(analyzer.New(manifest.Analyzer), docs, inv)
	e.buildID = manifest.BuildID
	e.logger.Info("index loaded",
		"index_dir", dir,
		"build_id", manifest.BuildID,
		"docs", len(docs),
		"terms", manifest.Terms,
	)
	return e, nil
}

// BuildID identifies the build the executor serves. It is empty for
// executors not created by Load.
func (e *Executor) BuildID() string {
	if e == nil {
		return ""
	}
	return e.buildID
}

// Documents returns the number of indexed documents.
func (e *Executor) Documents() int {
	if e == nil {
		return 0
	}
	return len(e.docs)
}

// Analyze runs text through the query pipeline.
func (e *Executor) Analyze(text string) []string {
	return e.analyzer.Analyze(text)
}

// Query ranks every document against text. The list is complete, ordered by
// score descending and then document ID.
func (e *Executor) Query(ctx context.Context, text string) ([]ranker.ScoredDoc, error) {
	if e == nil || e.inv == nil {
		return nil, apperrors.ErrIndexNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := e.analyzer.Analyze(text)
	results := ranker.Rank(ranker.BuildQueryVector(terms), e.inv)
	e.logger.Debug("query executed", "query", text, "terms", terms, "docs", len(results))
	return results, nil
}

// QueryAsync runs Query on its own goroutine. The returned channel receives
// exactly one Result and is then closed.
func (e *Executor) QueryAsync(ctx context.Context, text string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		docs, err := e.Query(ctx, text)
		out <- Result{Docs: docs, Err: err}
	}()
	return out
}

// DocumentName returns the source name of document id.
func (e *Executor) DocumentName(id int) (string, error) {
	if e == nil || e.docs == nil {
		return "", apperrors.ErrIndexNotLoaded
	}
	return e.docs.Name(id)
}

// Search runs Query, keeps the best limit results, and attaches document
// names. TotalHits counts documents with a positive score.
func (e *Executor) Search(ctx context.Context, text string, limit int) (*SearchResult, error) {
	ranked, err := e.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, d := range ranked {
		if d.Score > 0 {
			total++
		}
	}
	top := merger.TopK(ranked, limit)
	hits := make([]Hit, len(top))
	for i, d := range top {
		name, err := e.docs.Name(d.DocID)
		if err != nil {
			return nil, fmt.Errorf("resolving result %d: %w", d.DocID, err)
		}
		hits[i] = Hit{DocID: d.DocID, Name: name, Score: d.Score}
	}
	return &SearchResult{
		Query:     text,
		BuildID:   e.buildID,
		TotalHits: total,
		Results:   hits,
	}, nil
}
