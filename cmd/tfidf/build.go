package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/catalog"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/events"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/resilience"
)

type buildOptions struct {
	corpus  string
	out     string
	workers int
	format  string
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Index every matching file of a corpus directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, cmd, root.cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "corpus directory (default indexer.corpusDir)")
	cmd.Flags().StringVar(&opts.out, "out", "", "index output directory (default indexer.indexDir)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "number of shard workers (default indexer.numWorkers)")
	cmd.Flags().StringVar(&opts.format, "format", "", "artifact encoding: binary or text (default indexer.format)")
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *buildOptions) error {
	ic := cfg.Indexer
	if opts.corpus != "" {
		ic.CorpusDir = opts.corpus
	}
	if opts.out != "" {
		ic.IndexDir = opts.out
	}
	if cmd.Flags().Changed("workers") {
		if opts.workers <= 0 {
			return fmt.Errorf("--workers %d: %w", opts.workers, apperrors.ErrInvalidInput)
		}
		ic.NumWorkers = opts.workers
	}
	if opts.format != "" {
		if _, err := segment.ParseFormat(opts.format); err != nil {
			return err
		}
		ic.Format = opts.format
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		shutdown := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdown(context.Background())
	}

	a := analyzer.New(analyzer.OptionsFromConfig(cfg.Analysis))
	engine, err := indexer.NewEngine(ic, a, storage.NewOS(), m)
	if err != nil {
		return err
	}
	res, err := engine.Build(ctx, ic.CorpusDir)
	if err != nil {
		return err
	}
	manifest, err := engine.Persist(ctx, res, ic.IndexDir)
	if err != nil {
		return err
	}
	if err := publishBuild(ctx, cfg, res, manifest, ic.IndexDir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents, %d terms into %s (build %s)\n",
		len(res.Docs), res.Terms, ic.IndexDir, res.BuildID)
	return nil
}

// publishBuild hands a persisted build to the catalog and to Kafka when
// they are enabled.
func publishBuild(ctx context.Context, cfg *config.Config, res *indexer.BuildResult, manifest *segment.Manifest, outDir string) error {
	indexDir, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", outDir, err)
	}
	if cfg.Postgres.Enabled {
		recordBuild(ctx, cfg.Postgres, catalog.Entry{
			BuildID:   res.BuildID,
			CorpusDir: res.CorpusDir,
			IndexDir:  indexDir,
			Format:    string(manifest.Format),
			Terms:     res.Terms,
			Duration:  res.Duration,
			BuiltAt:   time.Now(),
			Docs:      res.Docs,
		})
	}
	if cfg.Kafka.Enabled {
		announceBuild(ctx, cfg.Kafka, events.IndexBuiltEvent{
			BuildID:   res.BuildID,
			IndexDir:  indexDir,
			Documents: len(res.Docs),
			Terms:     res.Terms,
			BuiltAt:   time.Now().UTC(),
		})
	}
	return nil
}

// recordBuild writes the catalog entry. The index on disk is already
// complete, so failures are logged and do not fail the build.
func recordBuild(ctx context.Context, cfg config.PostgresConfig, e catalog.Entry) {
	log := logger.WithComponent("build")
	client, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("catalog unavailable, build not recorded", "error", err)
		return
	}
	defer client.Close()
	cat := catalog.New(client)
	if err := cat.EnsureSchema(ctx); err != nil {
		log.Error("catalog schema", "error", err)
		return
	}
	if err := cat.Record(ctx, e); err != nil {
		log.Error("catalog record", "error", err)
	}
}

func announceBuild(ctx context.Context, cfg config.KafkaConfig, ev events.IndexBuiltEvent) {
	producer := kafka.NewProducer(cfg, cfg.Topics.IndexComplete)
	defer producer.Close()
	if err := events.NewPublisher(producer, resilience.RetryConfig{}).IndexBuilt(ctx, ev); err != nil {
		logger.WithComponent("build").Error("build not announced", "error", err)
	}
}
