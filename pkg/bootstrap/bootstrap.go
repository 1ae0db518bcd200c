package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/logger"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/nats"
)

// NewLogger creates a logger on stdout with the configured level and format.
// Records carry trace_id and request_id when the context has them.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo is NewLogger writing to w. JSON is the default format.
func NewLoggerTo(w io.Writer, cfg config.LogConfig) *slog.Logger {
	logLevel := toLevel(cfg.Level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	var handler slog.Handler
	if cfg.Format == config.LogFormatText {
		handler = slog.NewTextHandler(w, loggerOpts)
	} else {
		handler = slog.NewJSONHandler(w, loggerOpts)
	}
	return slog.New(logger.NewContextHandler(handler))
}

// NewPublisher connects to NATS JetStream and makes sure the catalog stream exists.
// Publishing goes through a circuit breaker configured by cfg.Breaker.
// With NATS disabled it returns a publisher that drops events.
// The returned close function must be called on shutdown.
func NewPublisher(ctx context.Context, cfg config.NATSConfig, log *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		log.Info("NATS disabled, catalog events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}

	nc, err := nats.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}

	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := nats.EnsureStream(streamCtx, js, cfg.Stream, messaging.ProductSubjectPrefix+">"); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to prepare JetStream: %w", err)
	}
	log.Info("Connected to NATS", "url", cfg.Url, "stream", cfg.Stream)

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			log.Warn("Failed to drain NATS connection", "error", err)
		}
	}
	return messaging.NewBreakerPublisher("catalog-events", nats.NewNatsPublisher(js, cfg.Stream), cfg.Breaker, log), closeFn, nil
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
