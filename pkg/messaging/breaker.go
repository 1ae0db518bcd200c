package messaging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// BreakerPublisher stops calling the wrapped publisher after repeated failures
// and fails fast with gobreaker.ErrOpenState until the open timeout passes.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[any]
}

var _ Publisher = (*BreakerPublisher)(nil)

func NewBreakerPublisher(name string, next Publisher, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerPublisher {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		// a canceled caller says nothing about the broker
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Publisher circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerPublisher{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](st),
	}
}

func (p *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.next.Publish(ctx, event)
	})
	return err
}
