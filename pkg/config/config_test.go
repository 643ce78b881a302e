package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Indexer.NumWorkers)
	assert.Equal(t, "binary", cfg.Indexer.Format)
	assert.True(t, cfg.Analysis.RemoveStopWords)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
indexer:
  numWorkers: 3
  format: text
analysis:
  caseFold: false
search:
  queryTimeout: 2s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Indexer.NumWorkers)
	assert.Equal(t, "text", cfg.Indexer.Format)
	assert.False(t, cfg.Analysis.CaseFold)
	assert.True(t, cfg.Analysis.RemovePunctuation, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Search.QueryTimeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TS_INDEXER_NUM_WORKERS", "4")
	t.Setenv("TS_KAFKA_ENABLED", "true")
	t.Setenv("TS_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("TS_REDIS_ENABLED", "maybe")
	t.Setenv("TS_POSTGRES_PORT", "6543")
	t.Setenv("TS_INDEXER_WRITE_SHARDS", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Indexer.NumWorkers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled, "unparseable bools keep the default")
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.True(t, cfg.Indexer.WriteShards)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Indexer.NumWorkers = 0 }},
		{"bad format", func(c *Config) { c.Indexer.Format = "xml" }},
		{"empty pattern", func(c *Config) { c.Indexer.FilePattern = "" }},
		{"limit above max", func(c *Config) { c.Search.DefaultLimit = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("indexer: ["), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	p := Default().Postgres
	assert.Equal(t, "host=localhost port=5432 user=tfidfsearch password=localdev dbname=tfidfsearch sslmode=disable", p.DSN())
}
