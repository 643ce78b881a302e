// Package shard runs the parallel term-frequency pass of an index build.
// The document list is cut into contiguous partitions and each partition is
// counted by its own worker into a map no other worker touches.
package shard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
)

// Result is the output of one worker.
type Result struct {
	ShardID  int
	Docs     int
	Tokens   int
	Terms    index.FrequencyIndex
	Duration time.Duration
}

// Builder counts terms of a corpus with one worker per partition.
type Builder struct {
	reader   storage.TextReader
	dir      string
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// NewBuilder creates a Builder reading documents from dir.
func NewBuilder(reader storage.TextReader, dir string, a *analyzer.Analyzer) *Builder {
	return &Builder{
		reader:   reader,
		dir:      dir,
		analyzer: a,
		logger:   logger.WithComponent("shard-builder"),
	}
}

// Partition cuts docs into p contiguous chunks. The first p-1 chunks hold
// len(docs)/p documents and the last one takes the remainder, so with fewer
// documents than partitions only the last chunk is non-empty. A
// non-positive p yields no chunks.
func Partition(docs index.DocumentMap, p int) []index.DocumentMap {
	if p <= 0 {
		return nil
	}
	size := len(docs) / p
	chunks := make([]index.DocumentMap, p)
	for i := 0; i < p-1; i++ {
		chunks[i] = docs[i*size : (i+1)*size]
	}
	chunks[p-1] = docs[(p-1)*size:]
	return chunks
}

// Build runs one worker per partition and returns their results in worker
// order once all of them have finished. Any worker failure fails the build.
func (b *Builder) Build(ctx context.Context, docs index.DocumentMap, p int) ([]Result, error) {
	if p <= 0 {
		return nil, fmt.Errorf("partition count %d: %w", p, apperrors.ErrInvalidInput)
	}
	chunks := Partition(docs, p)
	results := make([]Result, p)
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("shard %d panicked: %v: %w", i, r, apperrors.ErrWorkerFailed)
				}
			}()
			res, err := b.count(gctx, i, chunk)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) count(ctx context.Context, shardID int, chunk index.DocumentMap) (Result, error) {
	start := time.Now()
	terms := make(index.FrequencyIndex)
	tokens := 0
	for n, doc := range chunk {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("shard %d cancelled: %w", shardID, err)
		}
		b.logger.Debug("processing document",
			"shard_id", shardID,
			"doc_id", doc.ID,
			"source", doc.SourceName,
			"progress", fmt.Sprintf("%d/%d", n+1, len(chunk)),
		)
		text, err := b.reader.ReadText(b.dir, doc.SourceName)
		if err != nil {
			return Result{}, fmt.Errorf("shard %d reading %s: %w", shardID, doc.SourceName, err)
		}
		for _, term := range b.analyzer.Analyze(text) {
			terms.Add(term, doc.ID)
			tokens++
		}
	}
	res := Result{
		ShardID:  shardID,
		Docs:     len(chunk),
		Tokens:   tokens,
		Terms:    terms,
		Duration: time.Since(start),
	}
	b.logger.Info("shard complete",
		"shard_id", shardID,
		"docs", res.Docs,
		"terms", len(terms),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
