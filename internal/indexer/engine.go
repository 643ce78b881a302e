// Package indexer orchestrates an index build: corpus load, parallel
// term counting, merge, TF-IDF weighting, inversion and normalization, and
// persistence of the resulting artifacts.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/tracing"
)

// Store is the storage the engine reads the corpus from and writes the
// index into.
type Store interface {
	storage.Lister
	storage.TextReader
	segment.FileStore
}

// BuildResult is the in-memory output of a build. The weighted and inverted
// indexes are not modified after Build returns. Format overrides the
// configured artifact format when set.
type BuildResult struct {
	BuildID   string
	CorpusDir string
	Analyzer  analyzer.Options
	Format    segment.Format
	Docs      index.DocumentMap
	Weighted  index.WeightedIndex
	Inverted  index.InvertedIndex
	Shards    []shard.Result
	Terms     int
	ZeroNorm  int
	Duration  time.Duration
}

type Engine struct {
	cfg      config.IndexerConfig
	analyzer *analyzer.Analyzer
	pattern  *regexp.Regexp
	store    Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEngine creates an Engine. m may be nil when metrics are not collected.
func NewEngine(cfg config.IndexerConfig, a *analyzer.Analyzer, store Store, m *metrics.Metrics) (*Engine, error) {
	pattern, err := corpus.CompilePattern(cfg.FilePattern)
	if err != nil {
		return nil, err
	}
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("indexer: %d workers: %w", cfg.NumWorkers, apperrors.ErrInvalidInput)
	}
	return &Engine{
		cfg:      cfg,
		analyzer: a,
		pattern:  pattern,
		store:    store,
		metrics:  m,
		logger:   logger.WithComponent("indexer"),
	}, nil
}

// Analyzer returns the text pipeline the engine indexes with.
func (e *Engine) Analyzer() *analyzer.Analyzer {
	return e.analyzer
}

// BuildIndex builds the index of corpusDir and returns the document map and
// the normalized inverted index.
func (e *Engine) BuildIndex(ctx context.Context, corpusDir string) (index.DocumentMap, index.InvertedIndex, error) {
	res, err := e.Build(ctx, corpusDir)
	if err != nil {
		return nil, nil, err
	}
	return res.Docs, res.Inverted, nil
}

// Build runs the whole pipeline over corpusDir. Any stage error aborts the
// build and no partial result is returned.
func (e *Engine) Build(ctx context.Context, corpusDir string) (*BuildResult, error) {
	buildID := uuid.NewString()
	ctx, root := tracing.StartSpan(ctx, "index.build", buildID)
	start := time.Now()
	log := e.logger.With("build_id", buildID)
	log.Info("build started", "corpus_dir", corpusDir, "workers", e.cfg.NumWorkers)

	res, err := e.build(ctx, corpusDir)
	return e.finish(log, root, start, buildID, res, err)
}

// Reindex rebuilds the weighted and inverted indexes from the artifacts of
// the build persisted in indexDir instead of from the corpus. Shard term
// counts are merged and weighed again when the build kept them; otherwise
// the stored weighted index is inverted again. The result keeps the
// analyzer options, format and corpus of the source build.
func (e *Engine) Reindex(ctx context.Context, indexDir string) (*BuildResult, error) {
	buildID := uuid.NewString()
	ctx, root := tracing.StartSpan(ctx, "index.reindex", buildID)
	start := time.Now()
	log := e.logger.With("build_id", buildID)
	log.Info("reindex started", "index_dir", indexDir)

	res, err := e.reindex(ctx, indexDir)
	return e.finish(log, root, start, buildID, res, err)
}

func (e *Engine) finish(log *slog.Logger, root *tracing.Span, start time.Time, buildID string, res *BuildResult, err error) (*BuildResult, error) {
	root.End()
	if err != nil {
		e.recordBuild("failed")
		log.Error("build failed", "error", err)
		return nil, err
	}
	res.BuildID = buildID
	res.Duration = time.Since(start)
	root.SetAttr("docs", len(res.Docs))
	root.SetAttr("terms", res.Terms)
	root.Log(log)

	e.recordBuild("success")
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(len(res.Docs)))
		e.metrics.IndexDocuments.Set(float64(len(res.Docs)))
		e.metrics.IndexTerms.Set(float64(res.Terms))
		e.metrics.ZeroNormDocuments.Set(float64(res.ZeroNorm))
	}
	log.Info("build complete",
		"docs", len(res.Docs),
		"terms", res.Terms,
		"zero_norm_docs", res.ZeroNorm,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Engine) build(ctx context.Context, corpusDir string) (*BuildResult, error) {
	var docs index.DocumentMap
	err := e.stage(ctx, "load", func(context.Context) error {
		var err error
		docs, err = corpus.Load(e.store, corpusDir, e.pattern, e.cfg.SortFiles)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("corpus loaded", "corpus_dir", corpusDir, "docs", len(docs))

	var shards []shard.Result
	err = e.stage(ctx, "shard", func(ctx context.Context) error {
		var err error
		shards, err = shard.NewBuilder(e.store, corpusDir, e.analyzer).Build(ctx, docs, e.cfg.NumWorkers)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("counting terms: %w", err)
	}
	e.recordShards(shards)

	var merged index.FrequencyIndex
	err = e.stage(ctx, "merge", func(context.Context) error {
		counts := make([]index.FrequencyIndex, len(shards))
		for i, s := range shards {
			counts[i] = s.Terms
		}
		var err error
		merged, err = index.Merge(counts...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("merging shards: %w", err)
	}

	weighted := e.weigh(ctx, merged, len(docs))
	res := e.invert(ctx, weighted, docs)
	res.CorpusDir = corpusDir
	res.Analyzer = e.analyzer.Options()
	res.Shards = shards
	return res, nil
}

func (e *Engine) reindex(ctx context.Context, indexDir string) (*BuildResult, error) {
	r, m, err := segment.Open(e.store, indexDir)
	if err != nil {
		return nil, err
	}
	var docs index.DocumentMap
	err = e.stage(ctx, "load", func(context.Context) error {
		var err error
		docs, err = r.ReadDocumentMap()
		return err
	})
	if err != nil {
		return nil, err
	}

	var weighted index.WeightedIndex
	var shards []shard.Result
	switch {
	case m.Shards > 0:
		var merged index.FrequencyIndex
		err = e.stage(ctx, "merge", func(ctx context.Context) error {
			counts := make([]index.FrequencyIndex, m.Shards)
			for i := range counts {
				if err := ctx.Err(); err != nil {
					return err
				}
				terms, err := r.ReadShard(i)
				if err != nil {
					return err
				}
				counts[i] = terms
				shards = append(shards, shard.Result{ShardID: i, Terms: terms})
			}
			var err error
			merged, err = index.Merge(counts...)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("merging stored shards: %w", err)
		}
		weighted = e.weigh(ctx, merged, len(docs))
	case m.HasWeighted:
		err = e.stage(ctx, "load-weighted", func(context.Context) error {
			var err error
			weighted, err = r.ReadWeighted()
			return err
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s keeps neither shard counts nor a weighted index: %w",
			indexDir, apperrors.ErrIndexNotFound)
	}

	res := e.invert(ctx, weighted, docs)
	res.CorpusDir = m.CorpusDir
	res.Analyzer = m.Analyzer
	res.Format = m.Format
	res.Shards = shards
	return res, nil
}

func (e *Engine) weigh(ctx context.Context, merged index.FrequencyIndex, n int) index.WeightedIndex {
	var weighted index.WeightedIndex
	_ = e.stage(ctx, "weigh", func(context.Context) error {
		weighted = index.Weigh(merged, n)
		return nil
	})
	return weighted
}

func (e *Engine) invert(ctx context.Context, weighted index.WeightedIndex, docs index.DocumentMap) *BuildResult {
	var inv index.InvertedIndex
	var zero int
	_ = e.stage(ctx, "invert", func(context.Context) error {
		inv = index.Invert(weighted, docs)
		zero = inv.Normalize()
		return nil
	})
	if zero > 0 {
		e.logger.Warn("documents with zero-length vectors", "count", zero)
	}
	return &BuildResult{
		Docs:     docs,
		Weighted: weighted,
		Inverted: inv,
		Terms:    len(weighted),
		ZeroNorm: zero,
	}
}

// Persist writes the artifacts of res into outDir, in res.Format or else the
// configured format. The previous manifest is removed first and the new one
// goes last and is returned, so outDir never pairs a manifest with another
// build's artifacts.
func (e *Engine) Persist(ctx context.Context, res *BuildResult, outDir string) (*segment.Manifest, error) {
	name := e.cfg.Format
	if res.Format != "" {
		name = string(res.Format)
	}
	format, err := segment.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	manifest := segment.Manifest{
		BuildID:     res.BuildID,
		CorpusDir:   res.CorpusDir,
		Analyzer:    res.Analyzer,
		Documents:   len(res.Docs),
		Terms:       res.Terms,
		HasWeighted: e.cfg.WriteWeighted,
	}
	if e.cfg.WriteShards {
		manifest.Shards = len(res.Shards)
	}
	w := segment.NewWriter(e.store, outDir, format)
	err = e.stage(ctx, "persist", func(context.Context) error {
		if err := w.Begin(); err != nil {
			return err
		}
		if err := w.WriteDocumentMap(res.Docs); err != nil {
			return err
		}
		if e.cfg.WriteWeighted {
			if err := w.WriteWeighted(res.Weighted); err != nil {
				return err
			}
		} else if err := w.RemoveArtifact(segment.KindWeighted); err != nil {
			return err
		}
		for i := 0; i < manifest.Shards; i++ {
			if err := w.WriteShard(i, res.Shards[i].Terms); err != nil {
				return err
			}
		}
		if err := w.WriteInverted(res.Inverted); err != nil {
			return err
		}
		return w.WriteManifest(manifest)
	})
	if err != nil {
		return nil, fmt.Errorf("persisting index to %s: %w", outDir, err)
	}
	e.logger.Info("index persisted",
		"build_id", res.BuildID,
		"index_dir", outDir,
		"format", format,
	)
	manifest.Format = format
	return &manifest, nil
}

func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracing.StartChildSpan(ctx, name)
	err := fn(ctx)
	d := span.End()
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	if e.metrics != nil {
		e.metrics.BuildStageDuration.WithLabelValues(name).Observe(d.Seconds())
	}
	e.logger.Debug("stage finished", "stage", name, "duration_ms", d.Milliseconds())
	return err
}

func (e *Engine) recordShards(shards []shard.Result) {
	if e.metrics == nil {
		return
	}
	for _, s := range shards {
		id := strconv.Itoa(s.ShardID)
		e.metrics.ShardDocCount.WithLabelValues(id).Set(float64(s.Docs))
		e.metrics.ShardDuration.WithLabelValues(id).Observe(s.Duration.Seconds())
	}
}

func (e *Engine) recordBuild(status string) {
	if e.metrics != nil {
		e.metrics.BuildsTotal.WithLabelValues(status).Inc()
	}
}
