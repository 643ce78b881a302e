package indexer

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
)

func newCorpus(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	s, err := storage.NewMem()
	require.NoError(t, err)
	for name, text := range files {
		require.NoError(t, s.WriteFile("corpus", name, []byte(text)))
	}
	return s
}

func scenarioCorpus(t *testing.T) *storage.FS {
	return newCorpus(t, map[string]string{
		"doc0.txt": "red book blue book",
		"doc1.txt": "green book",
		"doc2.txt": "red car",
		"notes.md": "ignored",
		"readme":   "ignored",
	})
}

func newEngine(t *testing.T, store Store, workers int, m *metrics.Metrics) *Engine {
	t.Helper()
	cfg := config.Default().Indexer
	cfg.NumWorkers = workers
	e, err := NewEngine(cfg, analyzer.New(analyzer.OptionsFromConfig(config.Default().Analysis)), store, m)
	require.NoError(t, err)
	return e
}

func TestBuildIndex(t *testing.T) {
	e := newEngine(t, scenarioCorpus(t), 2, nil)
	docs, inv, err := e.BuildIndex(context.Background(), "corpus")
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "doc0.txt", docs[0].SourceName)
	assert.Equal(t, "doc2.txt", docs[2].SourceName)
	require.Len(t, inv, 3)
	for id, vec := range inv {
		assert.InDelta(t, 1.0, vec.Norm(), 1e-9, "doc %d", id)
	}
	assert.ElementsMatch(t, []string{"blue", "book", "red"}, inv[0].Terms())
}

func TestBuildWorkerCountDoesNotChangeIndex(t *testing.T) {
	store := scenarioCorpus(t)
	base, err := newEngine(t, store, 1, nil).Build(context.Background(), "corpus")
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 8} {
		res, err := newEngine(t, store, workers, nil).Build(context.Background(), "corpus")
		require.NoError(t, err)
		assert.Equal(t, base.Weighted, res.Weighted, "workers=%d", workers)
		assert.Equal(t, base.Inverted, res.Inverted, "workers=%d", workers)
		assert.Len(t, res.Shards, workers)
	}
}

func TestBuildIdempotent(t *testing.T) {
	e := newEngine(t, scenarioCorpus(t), 4, nil)
	first, err := e.Build(context.Background(), "corpus")
	require.NoError(t, err)
	second, err := e.Build(context.Background(), "corpus")
	require.NoError(t, err)
	assert.Equal(t, first.Docs, second.Docs)
	assert.Equal(t, first.Inverted, second.Inverted)
	assert.NotEqual(t, first.BuildID, second.BuildID)
}

func TestBuildEmptyCorpus(t *testing.T) {
	store := newCorpus(t, map[string]string{"only.md": "nothing indexed"})
	res, err := newEngine(t, store, 3, nil).Build(context.Background(), "corpus")
	require.NoError(t, err)
	assert.Empty(t, res.Docs)
	assert.Empty(t, res.Inverted)
	assert.Equal(t, 0, res.Terms)
}

func TestBuildZeroNorm(t *testing.T) {
	store := newCorpus(t, map[string]string{
		"a.txt": "shared unique",
		"b.txt": "shared",
		"c.txt": "the and",
	})
	res, err := newEngine(t, store, 2, nil).Build(context.Background(), "corpus")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ZeroNorm, "c.txt holds only stop words")
	assert.Empty(t, res.Inverted[2])
}

func TestBuildCorpusErrors(t *testing.T) {
	store := scenarioCorpus(t)
	e := newEngine(t, store, 2, nil)

	_, err := e.Build(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrDirectoryNotFound)

	_, err = e.Build(context.Background(), "corpus/doc0.txt")
	assert.ErrorIs(t, err, apperrors.ErrNotADirectory)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t, scenarioCorpus(t), 2, nil).Build(ctx, "corpus")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := config.Default().Indexer
	cfg.FilePattern = "("
	_, err := NewEngine(cfg, analyzer.New(analyzer.Options{}), scenarioCorpus(t), nil)
	assert.Error(t, err)

	cfg = config.Default().Indexer
	cfg.NumWorkers = 0
	_, err = NewEngine(cfg, analyzer.New(analyzer.Options{}), scenarioCorpus(t), nil)
	assert.Error(t, err)
}

func TestPersist(t *testing.T) {
	for _, format := range []string{"binary", "text"} {
		t.Run(format, func(t *testing.T) {
			store := scenarioCorpus(t)
			cfg := config.Default().Indexer
			cfg.Format = format
			cfg.NumWorkers = 2
			e, err := NewEngine(cfg, analyzer.New(analyzer.Options{CaseFold: true}), store, nil)
			require.NoError(t, err)

			res, err := e.Build(context.Background(), "corpus")
			require.NoError(t, err)
			m, err := e.Persist(context.Background(), res, "index")
			require.NoError(t, err)
			assert.Equal(t, res.BuildID, m.BuildID)
			assert.Equal(t, segment.Format(format), m.Format)
			assert.Equal(t, analyzer.Options{CaseFold: true}, m.Analyzer)
			assert.Equal(t, 3, m.Documents)
			assert.Equal(t, 5, m.Terms)

			r := segment.NewReader(store, "index", segment.Format(format))
			inv, err := r.ReadInverted()
			require.NoError(t, err)
			assert.Equal(t, res.Inverted, inv)
			weighted, err := r.ReadWeighted()
			require.NoError(t, err)
			assert.Equal(t, res.Weighted, weighted)
		})
	}
}

func TestPersistWithoutWeighted(t *testing.T) {
	store := scenarioCorpus(t)
	cfg := config.Default().Indexer
	cfg.WriteWeighted = false
	e, err := NewEngine(cfg, analyzer.New(analyzer.Options{}), store, nil)
	require.NoError(t, err)
	res, err := e.Build(context.Background(), "corpus")
	require.NoError(t, err)
	require.NoError(t, segment.NewWriter(store, "index", segment.FormatBinary).WriteWeighted(res.Weighted))
	m, err := e.Persist(context.Background(), res, "index")
	require.NoError(t, err)
	assert.False(t, m.HasWeighted)
	assert.False(t, store.Exists("index", segment.FileName(segment.KindWeighted, segment.FormatBinary)),
		"a weighted index of an earlier build is removed")

	_, err = segment.NewReader(store, "index", m.Format).ReadWeighted()
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
}

func TestBuildMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := newEngine(t, scenarioCorpus(t), 2, m)
	_, err := e.Build(context.Background(), "corpus")
	require.NoError(t, err)
	_, err = e.Build(context.Background(), "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexDocuments))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.IndexTerms))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ShardDocCount.WithLabelValues("1")))
}

func persistScenario(t *testing.T, mutate func(*config.IndexerConfig)) (*storage.FS, *BuildResult) {
	t.Helper()
	store := scenarioCorpus(t)
	cfg := config.Default().Indexer
	cfg.NumWorkers = 2
	mutate(&cfg)
	e, err := NewEngine(cfg, analyzer.New(analyzer.OptionsFromConfig(config.Default().Analysis)), store, nil)
	require.NoError(t, err)
	res, err := e.Build(context.Background(), "corpus")
	require.NoError(t, err)
	_, err = e.Persist(context.Background(), res, "index")
	require.NoError(t, err)
	return store, res
}

func TestPersistShards(t *testing.T) {
	store, res := persistScenario(t, func(c *config.IndexerConfig) { c.WriteShards = true })
	r, m, err := segment.Open(store, "index")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Shards)
	assert.Equal(t, "corpus", m.CorpusDir)
	for i, s := range res.Shards {
		terms, err := r.ReadShard(i)
		require.NoError(t, err)
		assert.Equal(t, s.Terms, terms)
	}
}

func TestReindex(t *testing.T) {
	tests := map[string]func(*config.IndexerConfig){
		"from shards": func(c *config.IndexerConfig) {
			c.WriteShards = true
			c.WriteWeighted = false
		},
		"from weighted": func(c *config.IndexerConfig) {
			c.Format = "text"
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			store, built := persistScenario(t, mutate)
			cfg := config.Default().Indexer
			mutate(&cfg)
			e, err := NewEngine(cfg, analyzer.New(analyzer.Options{}), store, nil)
			require.NoError(t, err)

			res, err := e.Reindex(context.Background(), "index")
			require.NoError(t, err)
			assert.NotEqual(t, built.BuildID, res.BuildID)
			assert.Equal(t, built.Docs, res.Docs)
			assert.Equal(t, built.Weighted, res.Weighted)
			assert.Equal(t, built.Inverted, res.Inverted)
			assert.Equal(t, built.Analyzer, res.Analyzer, "analyzer options come from the source build")
			assert.Equal(t, "corpus", res.CorpusDir)

			m, err := e.Persist(context.Background(), res, "reindexed")
			require.NoError(t, err)
			assert.Equal(t, built.Analyzer, m.Analyzer)
			r, _, err := segment.Open(store, "reindexed")
			require.NoError(t, err)
			inv, err := r.ReadInverted()
			require.NoError(t, err)
			assert.Equal(t, built.Inverted, inv)
		})
	}
}

func TestReindexWithoutSources(t *testing.T) {
	store, _ := persistScenario(t, func(c *config.IndexerConfig) { c.WriteWeighted = false })
	e := newEngine(t, store, 2, nil)
	_, err := e.Reindex(context.Background(), "index")
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)

	_, err = e.Reindex(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
}
