// Package relay moves outbox entries to the message broker.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "steward/pkg/platform/audit"
)

// Producer publishes one record synchronously.
type Producer interface {
	Produce(ctx context.Context, topic, key string, value []byte) error
}

// Relay polls the outbox and publishes pending entries in order. Entries are
// marked published only after the broker acknowledges them, so delivery is
// at-least-once.
type Relay struct {
	outbox   audit.Outbox
	producer Producer
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func New(outbox audit.Outbox, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		interval: 2 * time.Second,
		batch:    100,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch and returns how many entries were published. It
// stops at the first broker failure so ordering per aggregate is preserved.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	entries, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	var produceErr error
	for _, e := range entries {
		if err := r.producer.Produce(ctx, r.topic, e.AggregateID, e.Payload); err != nil {
			produceErr = err
			break
		}
		published = append(published, e.ID)
	}

	if len(published) > 0 {
		if err := r.outbox.MarkPublished(ctx, published, time.Now()); err != nil {
			return 0, err
		}
		r.logger.DebugContext(ctx, "outbox entries relayed", "count", len(published), "topic", r.topic)
	}
	return len(published), produceErr
}
