package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/executor"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/redis"
)

var opts = Options{DefaultLimit: 2, MaxResults: 3, QueryTimeout: time.Second}

func newHolder() *executor.Holder {
	docs := index.DocumentMap{
		{ID: 0, SourceName: "doc0.txt"},
		{ID: 1, SourceName: "doc1.txt"},
		{ID: 2, SourceName: "doc2.txt"},
	}
	inv := index.InvertedIndex{
		0: {"red": 0.6, "book": 0.8},
		1: {"book": 1},
		2: {"red": 0.8, "car": 0.6},
	}
	var h executor.Holder
	h.Store(executor.New(analyzer.New(analyzer.Options{CaseFold: true}), docs, inv))
	return &h
}

func serve(t *testing.T, h *Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSearch(t *testing.T) {
	h := New(newHolder(), nil, nil, opts)
	rec, body := serve(t, h, "/api/v1/search?q=Red")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Red", body["query"])
	assert.Equal(t, 2.0, body["total_hits"])

	results := body["results"].([]any)
	require.Len(t, results, 2, "default limit applies")
	first := results[0].(map[string]any)
	assert.Equal(t, "doc2.txt", first["name"])
	assert.InDelta(t, 0.8, first["score"], 1e-12)
}

func TestSearchLimit(t *testing.T) {
	h := New(newHolder(), nil, nil, opts)
	_, body := serve(t, h, "/api/v1/search?q=book&limit=50")
	assert.Len(t, body["results"], 3, "limit is capped at MaxResults")

	_, body = serve(t, h, "/api/v1/search?q=book&limit=1")
	assert.Len(t, body["results"], 1)
}

func TestSearchBadRequest(t *testing.T) {
	h := New(newHolder(), nil, nil, opts)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=red&limit=0",
		"/api/v1/search?q=red&limit=abc",
	} {
		rec, body := serve(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestSearchNotLoaded(t *testing.T) {
	h := New(&executor.Holder{}, nil, nil, opts)
	rec, body := serve(t, h, "/api/v1/search?q=red")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["error"], "index not loaded")
}

type mapStore map[string]string

func (m mapStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return v, nil
}

func (m mapStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m[key] = string(value.([]byte))
	return nil
}

func (m mapStore) FlushByPattern(context.Context, string) (int64, error) {
	return 0, nil
}

func TestSearchCached(t *testing.T) {
	store := mapStore{}
	qc := cache.New(store, time.Minute, nil)
	h := New(newHolder(), qc, nil, opts)

	_, first := serve(t, h, "/api/v1/search?q=red+book")
	require.Len(t, store, 1)
	_, second := serve(t, h, "/api/v1/search?q=BOOK+red")
	assert.Equal(t, "BOOK red", second["query"], "query echoes the request, not the cached entry")
	assert.Equal(t, first["results"], second["results"])

	_, stats := serve(t, h, "/api/v1/cache/stats")
	assert.Equal(t, 1.0, stats["hits"])
	assert.Equal(t, 1.0, stats["misses"])
	assert.Equal(t, 2.0, stats["total"])
}

func TestCacheStatsDisabled(t *testing.T) {
	_, body := serve(t, New(newHolder(), nil, nil, opts), "/api/v1/cache/stats")
	assert.Equal(t, "disabled", body["status"])
}

func TestDocument(t *testing.T) {
	h := New(newHolder(), nil, nil, opts)
	rec, body := serve(t, h, "/api/v1/documents/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc1.txt", body["name"])
	assert.Equal(t, 1.0, body["doc_id"])

	rec, _ = serve(t, h, "/api/v1/documents/9")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = serve(t, h, "/api/v1/documents/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(body["error"].(string), "integer"))
}
