package shard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

type mapReader map[string]string

func (m mapReader) ReadText(dir, name string) (string, error) {
	text, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", dir, name, apperrors.ErrNotFound)
	}
	return text, nil
}

type panicReader struct{}

func (panicReader) ReadText(string, string) (string, error) { panic("disk on fire") }

func docs(n int) index.DocumentMap {
	d := make(index.DocumentMap, n)
	for i := range d {
		d[i] = index.Document{ID: i, SourceName: fmt.Sprintf("d%d.txt", i)}
	}
	return d
}

func sizes(chunks []index.DocumentMap) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = len(c)
	}
	return out
}

func TestPartition(t *testing.T) {
	tests := []struct {
		n, p int
		want []int
	}{
		{10, 3, []int{3, 3, 4}},
		{9, 3, []int{3, 3, 3}},
		{2, 4, []int{0, 0, 0, 2}},
		{0, 3, []int{0, 0, 0}},
		{5, 1, []int{5}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.p), func(t *testing.T) {
			chunks := Partition(docs(tt.n), tt.p)
			assert.Equal(t, tt.want, sizes(chunks))

			var seen []int
			for _, c := range chunks {
				seen = append(seen, c.IDs()...)
			}
			if tt.n > 0 {
				assert.Equal(t, docs(tt.n).IDs(), seen, "pairs keep their IDs and order")
			}
		})
	}
}

func TestPartitionNonPositive(t *testing.T) {
	assert.Empty(t, Partition(docs(4), 0))
	assert.Empty(t, Partition(docs(4), -2))
}

func TestBuild(t *testing.T) {
	reader := mapReader{
		"d0.txt": "red book blue book",
		"d1.txt": "green book",
		"d2.txt": "red car",
	}
	b := NewBuilder(reader, "corpus", analyzer.New(analyzer.Options{RemovePunctuation: true, CaseFold: true}))
	results, err := b.Build(context.Background(), docs(3), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].ShardID)
	assert.Equal(t, 1, results[0].Docs)
	assert.Equal(t, 4, results[0].Tokens)
	assert.Equal(t, index.FrequencyIndex{
		"red":  {0: 1},
		"book": {0: 2},
		"blue": {0: 1},
	}, results[0].Terms)

	assert.Equal(t, 1, results[1].ShardID)
	assert.Equal(t, index.FrequencyIndex{
		"green": {1: 1},
		"book":  {1: 1},
		"red":   {2: 1},
		"car":   {2: 1},
	}, results[1].Terms)
}

func TestBuildMoreWorkersThanDocs(t *testing.T) {
	reader := mapReader{"d0.txt": "alpha", "d1.txt": "beta"}
	b := NewBuilder(reader, "corpus", analyzer.New(analyzer.Options{}))
	results, err := b.Build(context.Background(), docs(2), 5)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results[:4] {
		assert.Empty(t, r.Terms)
	}
	assert.Equal(t, 2, results[4].Docs)
}

func TestBuildInvalidWorkers(t *testing.T) {
	b := NewBuilder(mapReader{}, "corpus", analyzer.New(analyzer.Options{}))
	_, err := b.Build(context.Background(), docs(1), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBuildReadFailure(t *testing.T) {
	reader := mapReader{"d0.txt": "alpha"}
	b := NewBuilder(reader, "corpus", analyzer.New(analyzer.Options{}))
	results, err := b.Build(context.Background(), docs(2), 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, results)
}

func TestBuildPanic(t *testing.T) {
	b := NewBuilder(panicReader{}, "corpus", analyzer.New(analyzer.Options{}))
	_, err := b.Build(context.Background(), docs(4), 2)
	assert.ErrorIs(t, err, apperrors.ErrWorkerFailed)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBuilder(mapReader{"d0.txt": "a"}, "corpus", analyzer.New(analyzer.Options{}))
	_, err := b.Build(ctx, docs(1), 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func BenchmarkBuild(b *testing.B) {
	reader := make(mapReader)
	d := docs(200)
	for _, doc := range d {
		reader[doc.SourceName] = "distributed search engine with parallel indexing and cosine ranking of documents"
	}
	builder := NewBuilder(reader, "corpus", analyzer.New(analyzer.Options{RemoveStopWords: true, RemovePunctuation: true, CaseFold: true}))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(context.Background(), d, 8); err != nil {
			b.Fatal(err)
		}
	}
}
