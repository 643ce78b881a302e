package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/redis"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var indexDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP, reloading when a new build is announced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexDir == "" {
				indexDir = root.cfg.Indexer.IndexDir
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, indexDir)
		},
	}
	cmd.Flags().StringVar(&indexDir, "index", "", "index directory (default indexer.indexDir)")
	return cmd
}

// indexReloader swaps in a new build and drops the cache entries of the one
// it replaced.
type indexReloader struct {
	holder  *executor.Holder
	store   segment.FileStore
	cache   *cache.QueryCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func (r *indexReloader) Reload(ctx context.Context, dir string) error {
	old, err := r.holder.Reload(r.store, dir)
	if err != nil {
		r.metrics.IndexReloadsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("reloading %s: %w", dir, err)
	}
	r.metrics.IndexReloadsTotal.WithLabelValues("success").Inc()
	if r.cache != nil && old.BuildID() != "" {
		if err := r.cache.InvalidateBuild(ctx, old.BuildID()); err != nil {
			r.logger.Warn("stale cache entries left", "error", err)
		}
	}
	return nil
}

func runServe(ctx context.Context, root *rootOptions, indexDir string) error {
	cfg := root.cfg
	log := logger.WithComponent("serve")
	indexDir, err := filepath.Abs(indexDir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", indexDir, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	store := storage.NewOS()
	holder := &executor.Holder{}
	if _, err := holder.Reload(store, indexDir); err != nil {
		if !cfg.Kafka.Enabled || !errors.Is(err, apperrors.ErrIndexNotFound) {
			return err
		}
		log.Warn("no index yet, waiting for a build announcement", "index_dir", indexDir)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		exec, err := holder.Snapshot()
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("build %s, %d documents", exec.BuildID(), exec.Documents()),
		}
	})

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.Ping(redisClient.Ping, false))
			log.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Postgres.Enabled {
		pg, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			log.Warn("build catalog unavailable", "error", err)
		} else {
			defer pg.Close()
			checker.Register("postgres", health.Ping(pg.Ping, false))
		}
	}

	if cfg.Kafka.Enabled {
		reloader := &indexReloader{holder: holder, store: store, cache: queryCache, metrics: m, logger: log}
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, consumer.HandleIndexBuilt(indexDir, reloader))
		ic := consumer.New(kc)
		go func() {
			if err := ic.Start(ctx); err != nil {
				log.Error("index consumer stopped", "error", err)
			}
		}()
	}

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdown(context.Background())
	}

	h := handler.New(holder, queryCache, m, handler.Options{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
		QueryTimeout: cfg.Search.QueryTimeout,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	log.Info("search service listening", "addr", server.Addr, "index_dir", indexDir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("search service stopped")
	return nil
}
