package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	SetupWriter(&buf, level, "json")
	return &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestWithComponent(t *testing.T) {
	buf := capture(t, "info")
	WithComponent("indexer").Info("build started", "docs", 3)

	rec := lastRecord(t, buf)
	assert.Equal(t, "indexer", rec["component"])
	assert.Equal(t, "build started", rec["msg"])
	assert.EqualValues(t, 3, rec["docs"])
}

func TestFromContext(t *testing.T) {
	buf := capture(t, "info")
	FromContext(WithRequestID(context.Background(), "req-1")).Info("search")
	assert.Equal(t, "req-1", lastRecord(t, buf)["request_id"])

	FromContext(context.Background()).Info("search")
	assert.NotContains(t, lastRecord(t, buf), "request_id")
}

func TestLevel(t *testing.T) {
	buf := capture(t, "warn")
	WithComponent("serve").Info("hidden")
	assert.Zero(t, buf.Len())
	WithComponent("serve").Warn("shown")
	assert.Equal(t, "shown", lastRecord(t, buf)["msg"])
}
