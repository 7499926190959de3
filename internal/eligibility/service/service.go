package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	eligibilitymetrics "steward/internal/eligibility/metrics"
	"steward/internal/eligibility/models"
	"steward/internal/eligibility/ports"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/requestcontext"
)

const factTimeout = 3 * time.Second

var tracer = otel.Tracer("steward/internal/eligibility")

// Service derives approved-researcher status from current facts. Nothing is
// cached; every call re-reads and re-evaluates.
type Service struct {
	profile    ports.ProfilePort
	agreements ports.AgreementPort
	training   ports.TrainingPort
	logger     *slog.Logger
	metrics    *eligibilitymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *eligibilitymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(profile ports.ProfilePort, agreements ports.AgreementPort, training ports.TrainingPort, opts ...Option) *Service {
	s := &Service{
		profile:    profile,
		agreements: agreements,
		training:   training,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate returns subject's eligibility and onboarding checklist.
func (s *Service) Evaluate(ctx context.Context, subject id.UserID) (models.Result, error) {
	ctx, span := tracer.Start(ctx, "eligibility.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", subject.String()))

	facts, err := s.gatherFacts(ctx, subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fact gathering failed")
		return models.Result{}, err
	}
	result := models.Evaluate(*facts)

	step, _ := result.CurrentStep()
	span.SetAttributes(
		attribute.Bool("approved_researcher", result.IsApprovedResearcher),
		attribute.String("current_step", string(step)),
	)
	s.metrics.IncEvaluation(result.IsApprovedResearcher, string(step))
	return result, nil
}

// RequireApprovedResearcher refuses actors who are not currently eligible.
func (s *Service) RequireApprovedResearcher(ctx context.Context, actor id.Actor) error {
	if actor.IsAnonymous() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	result, err := s.Evaluate(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !result.IsApprovedResearcher {
		s.metrics.IncGuardViolation()
		step, _ := result.CurrentStep()
		s.logger.InfoContext(ctx, "actor is not an approved researcher",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", actor.UserID,
			"current_step", step,
		)
		return dErrors.Guard(dErrors.ReasonUnauthorized, "actor is not an approved researcher")
	}
	return nil
}

// IsApprovedResearcher is the boolean form of Evaluate.
func (s *Service) IsApprovedResearcher(ctx context.Context, userID id.UserID) (bool, error) {
	result, err := s.Evaluate(ctx, userID)
	if err != nil {
		return false, err
	}
	return result.IsApprovedResearcher, nil
}

func (s *Service) gatherFacts(ctx context.Context, subject id.UserID) (*models.Facts, error) {
	ctx, cancel := context.WithTimeout(ctx, factTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	facts := &models.Facts{
		RequireFullName: s.profile.RequireFullName(),
		RequiredKinds:   s.training.RequiredKinds(),
	}

	g.Go(func() error {
		defer s.observe("profile", time.Now())
		name, err := s.profile.ChosenName(gctx, subject)
		if err != nil {
			return err
		}
		facts.ChosenName = name
		return nil
	})

	g.Go(func() error {
		defer s.observe("current_agreement", time.Now())
		current, err := s.agreements.CurrentID(gctx, id.AgreementApprovedResearcher)
		if err != nil {
			return err
		}
		facts.CurrentAgreementID = current
		return nil
	})

	g.Go(func() error {
		defer s.observe("confirmations", time.Now())
		confirmations, err := s.agreements.Confirmations(gctx, subject)
		if err != nil {
			return err
		}
		facts.Confirmations = confirmations
		return nil
	})

	g.Go(func() error {
		defer s.observe("training", time.Now())
		validities, err := s.training.Validities(gctx, subject)
		if err != nil {
			return err
		}
		facts.Training = validities
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "eligibility facts timed out")
		}
		return nil, err
	}

	if facts.CurrentAgreementID == nil {
		s.metrics.IncUnresolvedAgreement()
		s.logger.ErrorContext(ctx, "current approved-researcher agreement unresolved",
			"request_id", requestcontext.RequestID(ctx),
			"config_error", true,
			"user_id", subject,
		)
	}
	return facts, nil
}

func (s *Service) observe(source string, start time.Time) {
	s.metrics.ObserveFactLatency(source, time.Since(start))
}
