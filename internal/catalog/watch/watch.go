// Package watch follows catalog events on JetStream and writes them to the log.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// Subject matches every catalog product event.
const Subject = messaging.ProductSubjectPrefix + ">"

// ackableMsg is the part of jetstream.Msg a handler needs.
type ackableMsg interface {
	Subject() string
	Data() []byte
	Ack() error
	Term() error
}

// Start creates or updates a durable consumer on stream and runs the configured number of workers
// until ctx is canceled.
func Start(ctx context.Context, js jetstream.JetStream, stream string, cfg config.WatchConfig, logger *slog.Logger) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		FilterSubject: Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return err
	}
	logger.Info("Watching catalog events", "stream", stream, "consumer", cfg.Consumer, "workers", cfg.Workers)

	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles each message.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.WatchConfig, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("Failed to fetch catalog events", "error", err)
				time.Sleep(cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(msg, logger)
			}
		}
	}
}

// handleMessage logs one catalog event.
// Payloads that don't decode are terminated so they are not redelivered.
func handleMessage(msg ackableMsg, logger *slog.Logger) {
	if msg == nil {
		logger.Error("Received nil message")
		return
	}
	var event events.ProductEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil || event.Type == "" {
		logger.Error("Failed to decode catalog event", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("Failed to terminate message", "error", err)
		}
		return
	}

	logger.Info("Catalog event",
		slog.String("subject", msg.Subject()),
		slog.String("type", event.Type),
		slog.Int64("product_id", event.ProductID),
		slog.String("code", event.Code),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))

	if err := msg.Ack(); err != nil {
		logger.Error("Failed to ack message", "error", err)
	}
}
