package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpans(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "build", "")
	require.NotEmpty(t, root.TraceID)
	assert.Equal(t, root.TraceID, TraceID(ctx))

	childCtx, child := StartChildSpan(ctx, "shard")
	child.SetAttr("docs", 3)
	assert.Same(t, child, SpanFromContext(childCtx))
	assert.Equal(t, root.TraceID, child.TraceID)
	child.End()
	root.End()
	require.Len(t, root.Children, 1)

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=build")
	assert.Contains(t, lines[1], "span=shard")
	assert.Contains(t, lines[1], "docs=3")
	assert.Contains(t, lines[1], "depth=1")
}

func TestChildWithoutParent(t *testing.T) {
	ctx, span := StartChildSpan(context.Background(), "orphan")
	assert.NotEmpty(t, span.TraceID)
	assert.Same(t, span, SpanFromContext(ctx))
	assert.Equal(t, "", TraceID(context.Background()))
}

func TestExplicitTraceID(t *testing.T) {
	_, span := StartSpan(context.Background(), "query", "req-1")
	assert.Equal(t, "req-1", span.TraceID)
}
