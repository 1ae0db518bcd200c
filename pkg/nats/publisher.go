package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsPublisher publishes catalog events to JetStream.
// When stream is set, a publish that lands in any other stream fails.
type NatsPublisher struct {
	js     jetstream.JetStream
	stream string
}

var _ messaging.Publisher = (*NatsPublisher)(nil)

func NewNatsPublisher(js jetstream.JetStream, stream string) *NatsPublisher {
	return &NatsPublisher{js: js, stream: stream}
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	var opts []jetstream.PublishOpt
	if p.stream != "" {
		opts = append(opts, jetstream.WithExpectStream(p.stream))
	}
	if _, err := p.js.Publish(ctx, event.Subject(), data, opts...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
