package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/resilience"
)

// Index hands out the executor serving the current build.
type Index interface {
	Snapshot() (*executor.Executor, error)
}

type Options struct {
	DefaultLimit int
	MaxResults   int
	QueryTimeout time.Duration
}

type Handler struct {
	index   Index
	cache   *cache.QueryCache
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
}

// New creates a Handler. queryCache and m may be nil.
func New(idx Index, queryCache *cache.QueryCache, m *metrics.Metrics, opts Options) *Handler {
	return &Handler{
		index:   idx,
		cache:   queryCache,
		metrics: m,
		opts:    opts,
		logger:  logger.WithComponent("search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit := h.opts.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.opts.MaxResults)
	}

	exec, err := h.index.Snapshot()
	if err != nil {
		h.fail(w, log, query, err)
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	err = resilience.WithTimeout(ctx, h.opts.QueryTimeout, "search", func(ctx context.Context) error {
		compute := func() (*executor.SearchResult, error) {
			return exec.Search(ctx, query, limit)
		}
		var err error
		if h.cache != nil {
			key := cache.Key(exec.BuildID(), exec.Analyze(query), limit)
			result, cacheHit, err = h.cache.GetOrCompute(ctx, key, compute)
		} else {
			result, err = compute()
		}
		return err
	})
	if err != nil {
		h.fail(w, log, query, err)
		return
	}
	resp := *result
	resp.Query = query

	latency := time.Since(start)
	if h.metrics != nil {
		resultType := "hit"
		if result.TotalHits == 0 {
			resultType = "zero_result"
		}
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	}
	log.Info("search completed",
		"query", query,
		"build_id", result.BuildID,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, &resp)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}
	exec, err := h.index.Snapshot()
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	name, err := exec.DocumentName(id)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":   id,
		"name":     name,
		"build_id": exec.BuildID(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]int64{
		"hits":   hits,
		"misses": misses,
		"total":  hits + misses,
	})
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, query string, err error) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
	}
	status := apperrors.HTTPStatusCode(err)
	log.Error("search failed", "query", query, "status", status, "error", err)
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
