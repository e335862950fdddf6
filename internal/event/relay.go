package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/gomarketplace/internal/domain"
)

const publishTimeout = 5 * time.Second

// Snapshots is the part of cart.Manager the relay observes.
type Snapshots interface {
	Subscribe() (<-chan domain.Cart, func())
}

// Relay publishes every cart snapshot as a cart.updated event. Publishing
// happens off the mutation path; failures are logged and dropped.
type Relay struct {
	source   Snapshots
	producer *Producer
	logger   *slog.Logger
}

// NewRelay creates a relay from source to producer.
func NewRelay(source Snapshots, producer *Producer, logger *slog.Logger) *Relay {
	return &Relay{source: source, producer: producer, logger: logger}
}

// Run publishes snapshots until ctx is done or the subscription closes. The
// snapshot present at subscription time is skipped unless it has changes
// (version > 0), so a restart does not re-announce an unchanged cart.
func (r *Relay) Run(ctx context.Context) {
	ch, cancel := r.source.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			if c.Version() == 0 {
				continue
			}
			r.publish(ctx, c)
		}
	}
}

func (r *Relay) publish(ctx context.Context, c domain.Cart) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := r.producer.PublishCartUpdated(pubCtx, c); err != nil {
		r.logger.WarnContext(ctx, "failed to publish cart snapshot",
			slog.Uint64("version", c.Version()),
			slog.String("error", err.Error()),
		)
	}
}
