package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"steward/internal/user/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
	"steward/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateRoles(ctx context.Context, userID id.UserID, roles id.RoleSet, now time.Time) error
	SetChosenName(ctx context.Context, userID id.UserID, name models.ChosenName, onlyIfUnset bool, now time.Time) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Config struct {
	// RequireFullName demands at least two name tokens.
	RequireFullName bool
}

// Service owns user records and their chosen names.
type Service struct {
	store          Store
	cfg            Config
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

func New(store Store, cfg Config, opts ...Option) *Service {
	s := &Service{store: store, cfg: cfg, logger: slog.Default(), tx: txcontext.NewInMemoryRunner()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequireFullName reports the configured chosen-name rule.
func (s *Service) RequireFullName() bool {
	return s.cfg.RequireFullName
}

// EnsureUser creates the actor's record on first sight and keeps roles in
// step with the identity provider afterwards.
func (s *Service) EnsureUser(ctx context.Context, actor id.Actor) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	existing, err := s.store.FindByID(ctx, actor.UserID)
	switch {
	case err == nil:
		return s.syncRoles(ctx, existing, actor, now)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	u, err := models.NewUser(actor.UserID, actor.Username, actor.Roles, now)
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, u); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		return s.emit(ctx, audit.Event{
			Action:      audit.EventUserCreated,
			ActorID:     actor.UserID,
			SubjectType: "user",
			SubjectID:   actor.UserID.String(),
		})
	})
	if errors.Is(err, sentinel.ErrConflict) {
		// Lost a first-login race, or the username belongs to someone else.
		raced, findErr := s.store.FindByID(ctx, actor.UserID)
		if findErr != nil {
			return nil, dErrors.New(dErrors.CodeConflict, "username is already registered to another user")
		}
		return s.syncRoles(ctx, raced, actor, now)
	}
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
		"username", u.Username,
	)
	return u, nil
}

func (s *Service) syncRoles(ctx context.Context, u *models.User, actor id.Actor, now time.Time) (*models.User, error) {
	if u.Username != actor.Username {
		s.logger.WarnContext(ctx, "identity provider username differs from stored username",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", u.ID,
		)
	}
	if sameRoles(u.Roles, actor.Roles) {
		return u, nil
	}
	if err := s.store.UpdateRoles(ctx, u.ID, actor.Roles, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync roles")
	}
	u.Roles = slices.Clone(actor.Roles)
	u.UpdatedAt = now
	s.logger.InfoContext(ctx, "user roles synced",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
		"roles", u.Roles.Strings(),
	)
	return u, nil
}

func sameRoles(a, b id.RoleSet) bool {
	if len(a) != len(b) {
		return false
	}
	for _, r := range a {
		if !b.Has(r) {
			return false
		}
	}
	return true
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// SetChosenName sets target's chosen name. Users may set their own once;
// administrators may overwrite anyone's.
func (s *Service) SetChosenName(ctx context.Context, actor id.Actor, target id.UserID, raw string) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	isAdmin := actor.Roles.IsAdmin()
	if actor.UserID != target && !isAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may set another user's chosen name")
	}
	name, err := models.ParseChosenName(raw, s.cfg.RequireFullName)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SetChosenName(ctx, target, name, !isAdmin, requestcontext.Now(ctx)); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return dErrors.New(dErrors.CodeConflict, "chosen name is already set; an administrator can change it")
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set chosen name")
			}
		}
		return s.emit(ctx, audit.Event{
			Action:      audit.EventChosenNameSet,
			ActorID:     actor.UserID,
			SubjectType: "user",
			SubjectID:   target.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "chosen name set",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", target,
		"by_admin", actor.UserID != target,
	)
	return s.Get(ctx, target)
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}
