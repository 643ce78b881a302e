package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/resilience"
)

type fakeSender struct {
	failures int
	sent     []kafka.Event
}

func (f *fakeSender) Publish(_ context.Context, event kafka.Event) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, event)
	return nil
}

var fastRetry = resilience.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
}

func TestIndexBuilt(t *testing.T) {
	s := &fakeSender{failures: 2}
	p := NewPublisher(s, fastRetry)
	ev := IndexBuiltEvent{BuildID: "b1", IndexDir: "/srv/index", Documents: 3, Terms: 5}

	require.NoError(t, p.IndexBuilt(context.Background(), ev))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "/srv/index", s.sent[0].Key)
	assert.Equal(t, ev, s.sent[0].Value)
}

func TestIndexBuiltGivesUp(t *testing.T) {
	s := &fakeSender{failures: 10}
	p := NewPublisher(s, fastRetry)
	err := p.IndexBuilt(context.Background(), IndexBuiltEvent{BuildID: "b1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "announcing build b1")
	assert.Empty(t, s.sent)
	assert.Equal(t, 7, s.failures)
}
