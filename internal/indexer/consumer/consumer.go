// Package consumer reacts to build announcements read from Kafka by
// reloading the index a server is answering queries from.
package consumer

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/events"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
)

// Reloader swaps in the index found in dir.
type Reloader interface {
	Reload(ctx context.Context, dir string) error
}

// IndexConsumer wraps a Kafka consumer of build announcements.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   logger.WithComponent("index-consumer"),
	}
}

// Start consumes until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleIndexBuilt returns a MessageHandler that reloads indexDir whenever an
// IndexBuiltEvent names it. Events for other directories and undecodable
// messages are acknowledged and skipped; a failed reload is returned so the
// message stays uncommitted.
func HandleIndexBuilt(indexDir string, r Reloader) kafka.MessageHandler {
	log := logger.WithComponent("index-consumer")
	want := filepath.Clean(indexDir)
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[events.IndexBuiltEvent](value)
		if err != nil {
			log.Error("failed to decode build event", "error", err, "key", string(key))
			return nil
		}
		if filepath.Clean(event.IndexDir) != want {
			log.Debug("ignoring build for another index",
				"build_id", event.BuildID,
				"index_dir", event.IndexDir,
			)
			return nil
		}
		if err := r.Reload(ctx, want); err != nil {
			return err
		}
		log.Info("index reloaded",
			"build_id", event.BuildID,
			"docs", event.Documents,
			"terms", event.Terms,
		)
		return nil
	}
}
