// Package compliance writes governance audit events fail-closed: Emit returns
// only after the event is in the store, and a store failure fails the caller.
// Inside a transaction the event and its outbox row commit with the state
// change they describe.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	audit "steward/pkg/platform/audit"
	"steward/pkg/requestcontext"
)

var (
	errNoAction  = errors.New("audit event has no action")
	errNoSubject = errors.New("audit event has no subject")
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit completes event from ctx (time, request id, acting user) and appends it.
// The enriched event is recorded on the active span.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	switch {
	case event.Action == "":
		return errNoAction
	case event.SubjectType == "" || event.SubjectID == "":
		return fmt.Errorf("%w: %s", errNoSubject, event.Action)
	}
	event = enrich(ctx, event)

	start := time.Now()
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		p.logger.ErrorContext(ctx, "audit persistence failed",
			"action", event.Action,
			"subject", event.SubjectType+"/"+event.SubjectID,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("persist audit event %s: %w", event.Action, err)
	}
	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted(event.Category())

	trace.SpanFromContext(ctx).AddEvent("audit."+string(event.Action), trace.WithAttributes(
		attribute.String("audit.subject_type", event.SubjectType),
		attribute.String("audit.subject_id", event.SubjectID),
		attribute.String("audit.category", string(event.Category())),
	))
	return nil
}

func enrich(ctx context.Context, event audit.Event) audit.Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.Actor(ctx).UserID
	}
	return event
}
