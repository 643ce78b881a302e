package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
)

type queryOptions struct {
	index string
	limit int
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{limit: -1}
	cmd := &cobra.Command{
		Use:   "query QUERY...",
		Short: "Rank the indexed documents against a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.index
			if dir == "" {
				dir = root.cfg.Indexer.IndexDir
			}
			limit := opts.limit
			if limit < 0 {
				limit = root.cfg.Search.DefaultLimit
			}
			exec, err := executor.Load(storage.NewOS(), dir)
			if err != nil {
				return err
			}
			ranked, err := exec.Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range merger.TopK(ranked, limit) {
				name, err := exec.DocumentName(d.DocID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", name, strconv.FormatFloat(d.Score, 'f', 6, 64))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.index, "index", "", "index directory (default indexer.indexDir)")
	cmd.Flags().IntVar(&opts.limit, "limit", -1, "maximum rows to print, 0 for all (default search.defaultLimit)")
	return cmd
}
