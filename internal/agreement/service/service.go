package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"steward/internal/agreement/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
	"steward/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, a *models.Agreement) error
	FindByID(ctx context.Context, agreementID id.AgreementID) (*models.Agreement, error)
	Current(ctx context.Context, t id.AgreementType) (*models.Agreement, error)
	AddConfirmation(ctx context.Context, c *models.Confirmation) error
	ListConfirmations(ctx context.Context, userID id.UserID) ([]models.Confirmation, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service publishes agreement versions and records confirmations.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	tx             txcontext.Runner
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

// WithTxRunner makes each write and its audit event one unit of work.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), tx: txcontext.NewInMemoryRunner()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish creates the next version of t. Administrators only.
func (s *Service) Publish(ctx context.Context, actor id.Actor, t id.AgreementType, text string) (*models.Agreement, error) {
	if !actor.Roles.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may publish agreements")
	}

	version := 1
	current, err := s.store.Current(ctx, t)
	switch {
	case err == nil:
		version = current.Version + 1
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve current agreement")
	}

	a, err := models.NewAgreement(id.AgreementID(uuid.New()), t, version, text, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a newer version was published concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish agreement")
		}
		return s.emit(ctx, audit.Event{
			Action:      audit.EventAgreementPublished,
			ActorID:     actor.UserID,
			SubjectType: "agreement",
			SubjectID:   a.ID.String(),
			Reason:      string(t),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "agreement published",
		"request_id", requestcontext.RequestID(ctx),
		"agreement_id", a.ID,
		"type", t,
		"version", a.Version,
	)
	return a, nil
}

// Current returns the latest version of t.
func (s *Service) Current(ctx context.Context, t id.AgreementType) (*models.Agreement, error) {
	a, err := s.store.Current(ctx, t)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no agreement of this type has been published")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve current agreement")
	}
	return a, nil
}

// CurrentID resolves the current version's id. Nothing published yields nil,
// which callers must treat as not agreed.
func (s *Service) CurrentID(ctx context.Context, t id.AgreementType) (*id.AgreementID, error) {
	a, err := s.store.Current(ctx, t)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve current agreement")
	}
	return &a.ID, nil
}

// Confirm records actor's confirmation of agreementID. Only the current
// version of a type may be confirmed.
func (s *Service) Confirm(ctx context.Context, actor id.Actor, agreementID id.AgreementID) (*models.Confirmation, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	a, err := s.store.FindByID(ctx, agreementID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agreement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agreement")
	}
	current, err := s.store.Current(ctx, a.Type)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve current agreement")
	}
	if current.ID != a.ID {
		return nil, dErrors.New(dErrors.CodeConflict, "agreement has been superseded by a newer version")
	}

	c := &models.Confirmation{
		UserID:        actor.UserID,
		AgreementID:   a.ID,
		AgreementType: a.Type,
		ConfirmedAt:   requestcontext.Now(ctx),
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.AddConfirmation(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record confirmation")
		}
		return s.emit(ctx, audit.Event{
			Action:      audit.EventAgreementConfirmed,
			ActorID:     actor.UserID,
			SubjectType: "user",
			SubjectID:   actor.UserID.String(),
			Reason:      a.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListConfirmations(ctx context.Context, userID id.UserID) ([]models.Confirmation, error) {
	out, err := s.store.ListConfirmations(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list confirmations")
	}
	return out, nil
}

// HasConfirmedCurrent reports whether userID confirmed the current version of
// t. Nothing published counts as not confirmed.
func (s *Service) HasConfirmedCurrent(ctx context.Context, userID id.UserID, t id.AgreementType) (bool, error) {
	currentID, err := s.CurrentID(ctx, t)
	if err != nil {
		return false, err
	}
	if currentID == nil {
		s.logger.ErrorContext(ctx, "current agreement unresolved",
			"request_id", requestcontext.RequestID(ctx),
			"config_error", true,
			"type", t,
		)
		return false, nil
	}
	confirmations, err := s.ListConfirmations(ctx, userID)
	if err != nil {
		return false, err
	}
	return models.HasConfirmed(confirmations, *currentID), nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}
