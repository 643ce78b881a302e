package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
)

type reindexOptions struct {
	index  string
	out    string
	format string
}

func newReindexCmd(root *rootOptions) *cobra.Command {
	opts := &reindexOptions{}
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the inverted index from the shard counts or weighted index of an existing build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReindex(ctx, cmd, root.cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.index, "index", "", "existing index directory (default indexer.indexDir)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output directory (default the --index directory)")
	cmd.Flags().StringVar(&opts.format, "format", "", "artifact encoding: binary or text (default the existing build's)")
	return cmd
}

func runReindex(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *reindexOptions) error {
	ic := cfg.Indexer
	src := opts.index
	if src == "" {
		src = ic.IndexDir
	}
	out := opts.out
	if out == "" {
		out = src
	}
	var format segment.Format
	if opts.format != "" {
		f, err := segment.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
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
	res, err := engine.Reindex(ctx, src)
	if err != nil {
		return err
	}
	if format != "" {
		res.Format = format
	}
	manifest, err := engine.Persist(ctx, res, out)
	if err != nil {
		return err
	}
	if err := publishBuild(ctx, cfg, res, manifest, out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d documents, %d terms from %s into %s (build %s)\n",
		len(res.Docs), res.Terms, src, out, res.BuildID)
	return nil
}
