// Package events defines the notification published when a build has been
// persisted and the publisher that sends it.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/resilience"
)

// IndexBuiltEvent announces a complete index in IndexDir.
type IndexBuiltEvent struct {
	BuildID   string    `json:"build_id"`
	IndexDir  string    `json:"index_dir"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	BuiltAt   time.Time `json:"built_at"`
}

// Sender is implemented by *kafka.Producer.
type Sender interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Publisher struct {
	sender Sender
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewPublisher(sender Sender, retry resilience.RetryConfig) *Publisher {
	return &Publisher{
		sender: sender,
		retry:  retry,
		logger: logger.WithComponent("build-events"),
	}
}

// IndexBuilt publishes ev keyed by its index directory, retrying with
// backoff.
func (p *Publisher) IndexBuilt(ctx context.Context, ev IndexBuiltEvent) error {
	err := resilience.Retry(ctx, "publish-index-built", p.retry, func() error {
		return p.sender.Publish(ctx, kafka.Event{Key: ev.IndexDir, Value: ev})
	})
	if err != nil {
		return fmt.Errorf("announcing build %s: %w", ev.BuildID, err)
	}
	p.logger.Info("build announced", "build_id", ev.BuildID, "index_dir", ev.IndexDir)
	return nil
}
