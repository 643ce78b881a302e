// Package catalog records completed index builds and their document maps in
// Postgres so operators can see which corpus produced which index.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/postgres"
)

// Schema creates the catalog tables when they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS index_builds (
    build_id    TEXT PRIMARY KEY,
    corpus_dir  TEXT NOT NULL,
    index_dir   TEXT NOT NULL,
    format      TEXT NOT NULL,
    documents   INTEGER NOT NULL,
    terms       INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    built_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS indexed_documents (
    build_id    TEXT NOT NULL REFERENCES index_builds(build_id) ON DELETE CASCADE,
    doc_id      INTEGER NOT NULL,
    source_name TEXT NOT NULL,
    PRIMARY KEY (build_id, doc_id)
);`

const (
	insertBuildSQL = `INSERT INTO index_builds
    (build_id, corpus_dir, index_dir, format, documents, terms, duration_ms, built_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertDocumentSQL = `INSERT INTO indexed_documents (build_id, doc_id, source_name)
    VALUES ($1, $2, $3)`
)

// Entry describes one build.
type Entry struct {
	BuildID   string
	CorpusDir string
	IndexDir  string
	Format    string
	Terms     int
	Duration  time.Duration
	BuiltAt   time.Time
	Docs      index.DocumentMap
}

// Execer is the subset of *sql.Tx the catalog writes through.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Catalog struct {
	client *postgres.Client
	logger *slog.Logger
}

func New(client *postgres.Client) *Catalog {
	return &Catalog{
		client: client,
		logger: logger.WithComponent("catalog"),
	}
}

// EnsureSchema creates the catalog tables.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.client.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Record stores the build row and its document map in one transaction.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	err := c.client.InTx(ctx, func(tx *sql.Tx) error {
		return WriteEntry(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("recording build %s: %w", e.BuildID, err)
	}
	c.logger.Info("build recorded", "build_id", e.BuildID, "docs", len(e.Docs))
	return nil
}

// WriteEntry issues the inserts for e against ex.
func WriteEntry(ctx context.Context, ex Execer, e Entry) error {
	if _, err := ex.ExecContext(ctx, insertBuildSQL,
		e.BuildID, e.CorpusDir, e.IndexDir, e.Format,
		len(e.Docs), e.Terms, e.Duration.Milliseconds(), e.BuiltAt.UTC(),
	); err != nil {
		return fmt.Errorf("inserting build row: %w", err)
	}
	for _, d := range e.Docs {
		if _, err := ex.ExecContext(ctx, insertDocumentSQL, e.BuildID, d.ID, d.SourceName); err != nil {
			return fmt.Errorf("inserting document %d: %w", d.ID, err)
		}
	}
	return nil
}
