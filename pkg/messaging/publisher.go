// Package messaging defines the events the catalog emits and the publisher they go through.
package messaging

import (
	"context"
)

// ProductSubjectPrefix is the subject root for catalog product events.
// The event type is appended, e.g. catalog.products.created.
const ProductSubjectPrefix = "catalog.products."

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}
