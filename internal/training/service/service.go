package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	trainingmetrics "steward/internal/training/metrics"
	"steward/internal/training/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
	"steward/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, rec *models.Record) error
	Find(ctx context.Context, userID id.UserID, kind models.Kind) (*models.Record, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Record, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config is the training policy. It is validated once at construction.
type Config struct {
	ValidityPeriodDays int
	Thresholds         models.Thresholds
	RequiredKinds      []models.Kind
}

func (c Config) validate() error {
	if c.ValidityPeriodDays < 0 {
		return dErrors.New(dErrors.CodeConfiguration, "training validity period must not be negative")
	}
	if len(c.RequiredKinds) == 0 {
		return dErrors.New(dErrors.CodeConfiguration, "at least one required training kind must be configured")
	}
	return c.Thresholds.Validate()
}

// Status pairs a kind with its validity at read time.
type Status struct {
	Kind     models.Kind
	Record   *models.Record
	Validity models.Validity
}

// Service records training completions and evaluates their validity lazily
// at read time. Nothing sweeps for expiry.
type Service struct {
	store          Store
	cfg            Config
	logger         *slog.Logger
	metrics        *trainingmetrics.Metrics
	auditPublisher AuditPublisher
	tx             txcontext.Runner
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *trainingmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

// New returns a configuration error when cfg is unusable.
func New(store Store, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Service{store: store, cfg: cfg, logger: slog.Default(), tx: txcontext.NewInMemoryRunner()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RequiredKinds returns the configured kinds every approved researcher needs.
func (s *Service) RequiredKinds() []models.Kind {
	return append([]models.Kind(nil), s.cfg.RequiredKinds...)
}

// Submit records that actor completed kind at completedAt, replacing any
// prior record of that kind.
func (s *Service) Submit(ctx context.Context, actor id.Actor, kind models.Kind, completedAt time.Time, certificateRef string) (*Status, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)
	rec, err := models.NewRecord(actor.UserID, kind, completedAt, certificateRef, now)
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Upsert(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save training record")
		}
		if s.auditPublisher == nil {
			return nil
		}
		return s.auditPublisher.Emit(ctx, audit.Event{
			Action:      audit.EventTrainingSubmitted,
			ActorID:     actor.UserID,
			SubjectType: "user",
			SubjectID:   actor.UserID.String(),
			Reason:      string(kind),
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncSubmission(string(kind))
	s.logger.InfoContext(ctx, "training submitted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", actor.UserID,
		"kind", kind,
	)
	return s.evaluate(ctx, kind, rec, now)
}

// Status evaluates one kind for userID at the request time.
func (s *Service) Status(ctx context.Context, userID id.UserID, kind models.Kind) (*Status, error) {
	rec, err := s.store.Find(ctx, userID, kind)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load training record")
	}
	return s.evaluate(ctx, kind, rec, requestcontext.Now(ctx))
}

// StatusAll evaluates every required kind, plus any other kind the user has
// on file, in that order.
func (s *Service) StatusAll(ctx context.Context, userID id.UserID) ([]Status, error) {
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load training records")
	}
	byKind := make(map[models.Kind]*models.Record, len(recs))
	for _, r := range recs {
		byKind[r.Kind] = r
	}

	now := requestcontext.Now(ctx)
	out := make([]Status, 0, len(s.cfg.RequiredKinds)+len(recs))
	seen := make(map[models.Kind]bool)
	for _, kind := range s.cfg.RequiredKinds {
		st, err := s.evaluate(ctx, kind, byKind[kind], now)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
		seen[kind] = true
	}
	for _, r := range recs {
		if seen[r.Kind] {
			continue
		}
		st, err := s.evaluate(ctx, r.Kind, r, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}

// Validities evaluates the required kinds only, keyed by kind.
func (s *Service) Validities(ctx context.Context, userID id.UserID) (map[models.Kind]models.Validity, error) {
	now := requestcontext.Now(ctx)
	out := make(map[models.Kind]models.Validity, len(s.cfg.RequiredKinds))
	for _, kind := range s.cfg.RequiredKinds {
		rec, err := s.store.Find(ctx, userID, kind)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load training record")
		}
		st, err := s.evaluate(ctx, kind, rec, now)
		if err != nil {
			return nil, err
		}
		out[kind] = st.Validity
	}
	return out, nil
}

func (s *Service) evaluate(ctx context.Context, kind models.Kind, rec *models.Record, now time.Time) (*Status, error) {
	v, err := models.EvaluateRecord(rec, s.cfg.ValidityPeriodDays, now, s.cfg.Thresholds)
	if err != nil {
		s.logger.ErrorContext(ctx, "training validity misconfigured",
			"request_id", requestcontext.RequestID(ctx),
			"config_error", true,
			"error", err,
		)
		return nil, err
	}
	s.metrics.IncEvaluation(string(v.State), string(v.Urgency))
	return &Status{Kind: kind, Record: rec, Validity: v}, nil
}
