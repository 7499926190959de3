package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	studymetrics "steward/internal/study/metrics"
	"steward/internal/study/models"
	"steward/internal/study/ports"
	"steward/internal/study/risk"
	"steward/internal/study/workflow"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
	"steward/pkg/requestcontext"
)

var tracer = otel.Tracer("steward/internal/study")

type Store interface {
	Create(ctx context.Context, st *models.Study) error
	FindByID(ctx context.Context, studyID id.StudyID) (*models.Study, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Study, error)
	CompareAndSwap(ctx context.Context, studyID id.StudyID, expected models.Revision, mutate func(*models.Study) error) (*models.Study, error)
}

// AssetStore records assets and answers the readiness asset count.
type AssetStore interface {
	AddAsset(ctx context.Context, a *models.Asset) error
	CountByStudy(ctx context.Context, studyID id.StudyID) (int, error)
}

// RiskCache is optional and never authoritative.
type RiskCache interface {
	Get(ctx context.Context, studyID id.StudyID, updatedAt time.Time) (*risk.Assessment, bool, error)
	Set(ctx context.Context, studyID id.StudyID, updatedAt time.Time, a risk.Assessment) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// View is a study with its risk assessment computed at read time.
type View struct {
	Study *models.Study
	Risk  risk.Assessment
}

// Service runs the study lifecycle. Every status change is decided by
// workflow.Decide and written with a compare-and-swap on the observed status.
type Service struct {
	store          Store
	assets         AssetStore
	eligibility    ports.EligibilityPort
	agreements     ports.AgreementPort
	directory      ports.DirectoryPort
	tx             txcontext.Runner
	policy         workflow.Policy
	cache          RiskCache
	logger         *slog.Logger
	metrics        *studymetrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *studymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func WithRiskCache(c RiskCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithTxRunner makes each transition and its audit event one unit of work.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func WithPolicy(p workflow.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(store Store, assets AssetStore, eligibility ports.EligibilityPort, agreements ports.AgreementPort, directory ports.DirectoryPort, opts ...Option) (*Service, error) {
	s := &Service{
		store:       store,
		assets:      assets,
		eligibility: eligibility,
		agreements:  agreements,
		directory:   directory,
		tx:          txcontext.NewInMemoryRunner(),
		policy:      workflow.DefaultPolicy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.policy.ApprovedEdit.IsValid() {
		return nil, dErrors.New(dErrors.CodeConfiguration, "unknown approved-edit policy "+string(s.policy.ApprovedEdit))
	}
	return s, nil
}

// Create starts an Incomplete study owned by actor. Only approved researchers
// holding the staff researcher role may create studies.
func (s *Service) Create(ctx context.Context, actor id.Actor, content models.Content) (*View, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Roles.CanCreateStudy() {
		return nil, dErrors.New(dErrors.CodeForbidden, "approved staff researcher role required to create a study")
	}
	eligible, err := s.eligibility.IsApprovedResearcher(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, dErrors.Guard(dErrors.ReasonUnauthorized, "only an approved researcher may create a study")
	}

	st, err := models.NewStudy(id.StudyID(uuid.New()), actor.UserID, actor.Username, content, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, st); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create study")
		}
		return s.emit(ctx, audit.Event{
			Action:      audit.EventStudyCreated,
			ActorID:     actor.UserID,
			SubjectType: "study",
			SubjectID:   st.ID.String(),
			ToStatus:    string(st.ApprovalStatus),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "study created",
		"request_id", requestcontext.RequestID(ctx),
		"study_id", st.ID,
		"user_id", actor.UserID,
	)
	return s.view(ctx, st), nil
}

// Get returns a study visible to actor. Studies the actor may not see are
// reported as not found.
func (s *Service) Get(ctx context.Context, actor id.Actor, studyID id.StudyID) (*View, error) {
	st, err := s.load(ctx, actor, studyID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, st), nil
}

// ListInput filters List. A reviewer listing Pending studies gets the review
// queue: highest risk first, then longest waiting.
type ListInput struct {
	Status *models.Status
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, actor id.Actor, in ListInput) ([]View, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	filter := models.ListFilter{Status: in.Status, Limit: in.Limit, Offset: in.Offset}
	if !actor.Roles.IsReviewer() {
		filter.VisibleTo = &models.Visibility{UserID: actor.UserID, Username: actor.Username}
	}
	reviewQueue := actor.Roles.IsReviewer() && in.Status != nil && *in.Status == models.StatusPending
	if reviewQueue {
		filter.Limit, filter.Offset = 0, 0
	}

	studies, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list studies")
	}
	views := make([]View, 0, len(studies))
	for _, st := range studies {
		views = append(views, *s.view(ctx, st))
	}
	if !reviewQueue {
		return views, nil
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Risk.Score != views[j].Risk.Score {
			return views[i].Risk.Score > views[j].Risk.Score
		}
		return views[i].Study.UpdatedAt.Before(views[j].Study.UpdatedAt)
	})
	return page(views, in.Offset, in.Limit), nil
}

func page(views []View, offset, limit int) []View {
	if offset >= len(views) {
		return []View{}
	}
	views = views[offset:]
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}

// EditContent replaces the editable fields. Editing an Approved study follows
// the approved-edit policy.
func (s *Service) EditContent(ctx context.Context, actor id.Actor, studyID id.StudyID, content models.Content, expected *models.Status) (*View, error) {
	candidate, err := content.Normalize("")
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, actor, studyID)
	if err != nil {
		return nil, err
	}
	ownerUsername, err := s.ownerUsername(ctx, actor, current, candidate.AdminUsernames)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, studyID, expected, workflow.Command{Event: workflow.EventEditContent, Actor: actor},
		func(st *models.Study) error {
			normalized, err := content.Normalize(ownerUsername)
			if err != nil {
				return err
			}
			st.ApplyContent(normalized)
			return nil
		})
}

// ownerUsername finds the owner's username so it can be kept out of the admin
// list. When an admin edits, the owner can only be recognised by resolving the
// submitted usernames. Usernames never change, so the answer stays valid for
// the rest of the edit.
func (s *Service) ownerUsername(ctx context.Context, actor id.Actor, st *models.Study, usernames []string) (string, error) {
	if st.IsOwner(actor.UserID) {
		return actor.Username, nil
	}
	if !st.CanManage(actor) {
		// The workflow refuses this edit; nothing to resolve.
		return "", nil
	}
	for _, u := range usernames {
		if st.IsStudyAdmin(u) {
			continue
		}
		userID, found, err := s.directory.LookupUsername(ctx, u)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve study admins")
		}
		if found && st.IsOwner(userID) {
			return u, nil
		}
	}
	return "", nil
}

// MarkReadyForReview submits the study. Readiness and the actor's eligibility
// are evaluated now, not taken from any earlier check.
func (s *Service) MarkReadyForReview(ctx context.Context, actor id.Actor, studyID id.StudyID, expected *models.Status) (*View, error) {
	return s.transition(ctx, actor, studyID, expected, workflow.Command{Event: workflow.EventMarkReadyForReview, Actor: actor}, nil)
}

func (s *Service) Approve(ctx context.Context, actor id.Actor, studyID id.StudyID, expected *models.Status) (*View, error) {
	return s.transition(ctx, actor, studyID, expected, workflow.Command{Event: workflow.EventApprove, Actor: actor}, nil)
}

func (s *Service) RequestChanges(ctx context.Context, actor id.Actor, studyID id.StudyID, feedback string, expected *models.Status) (*View, error) {
	return s.transition(ctx, actor, studyID, expected, workflow.Command{Event: workflow.EventRequestChanges, Actor: actor, Feedback: feedback}, nil)
}

func (s *Service) AmendFeedback(ctx context.Context, actor id.Actor, studyID id.StudyID, feedback string, expected *models.Status) (*View, error) {
	return s.transition(ctx, actor, studyID, expected, workflow.Command{Event: workflow.EventAmendFeedback, Actor: actor, Feedback: feedback}, nil)
}

var eventActions = map[workflow.Event]audit.AuditEvent{
	workflow.EventEditContent:        audit.EventStudyContentEdited,
	workflow.EventMarkReadyForReview: audit.EventStudyReadyForReview,
	workflow.EventApprove:            audit.EventStudyApproved,
	workflow.EventRequestChanges:     audit.EventStudyChangesRequested,
	workflow.EventAmendFeedback:      audit.EventStudyFeedbackAmended,
}

func (s *Service) transition(
	ctx context.Context,
	actor id.Actor,
	studyID id.StudyID,
	expected *models.Status,
	cmd workflow.Command,
	edit func(*models.Study) error,
) (*View, error) {
	ctx, span := tracer.Start(ctx, "study."+string(cmd.Event))
	defer span.End()
	span.SetAttributes(
		attribute.String("study_id", studyID.String()),
		attribute.String("user_id", actor.UserID.String()),
	)
	event := string(cmd.Event)

	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	current, err := s.load(ctx, actor, studyID)
	if err != nil {
		return nil, err
	}
	// The swap below is guarded on this revision, so readiness evaluated
	// against current still holds when the write lands.
	observed := current.Revision()
	if expected != nil && *expected != observed.Status {
		return nil, s.conflict(ctx, event, studyID)
	}

	var readiness workflow.Readiness
	if cmd.Event == workflow.EventMarkReadyForReview {
		if cmd.ActorIsApprovedResearcher, err = s.eligibility.IsApprovedResearcher(ctx, actor.UserID); err != nil {
			return nil, err
		}
		if readiness, err = s.readiness(ctx, current); err != nil {
			return nil, err
		}
	}

	outcome, err := workflow.Decide(cmd, workflow.SubjectOf(current), readiness, s.policy)
	if err != nil {
		reason := string(dErrors.ReasonOf(err))
		s.metrics.IncTransition(event, reason)
		span.SetAttributes(attribute.String("guard_reason", reason))
		s.logger.InfoContext(ctx, "study transition refused",
			"request_id", requestcontext.RequestID(ctx),
			"study_id", studyID,
			"user_id", actor.UserID,
			"event", event,
			"reason", reason,
		)
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Study
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err = s.store.CompareAndSwap(ctx, studyID, observed, func(st *models.Study) error {
			if edit != nil {
				if err := edit(st); err != nil {
					return err
				}
			}
			st.ApprovalStatus = outcome.To
			if outcome.FeedbackChanged {
				st.Feedback = outcome.Feedback
			}
			st.UpdatedAt = nextUpdatedAt(st.UpdatedAt, now)
			return nil
		})
		if err != nil {
			return err
		}
		e := audit.Event{
			Action:      eventActions[cmd.Event],
			ActorID:     actor.UserID,
			SubjectType: "study",
			SubjectID:   studyID.String(),
			FromStatus:  string(outcome.From),
			ToStatus:    string(outcome.To),
			Reason:      event,
		}
		if outcome.FeedbackChanged {
			e.Diff = feedbackDiff(current.Feedback, outcome.Feedback)
		}
		return s.emit(ctx, e)
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, s.conflict(ctx, event, studyID)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "study not found")
		}
		if _, ok := dErrors.From(err); ok {
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition write failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update study")
	}

	s.metrics.IncTransition(event, "ok")
	span.SetAttributes(
		attribute.String("from", string(outcome.From)),
		attribute.String("to", string(outcome.To)),
	)
	s.logger.InfoContext(ctx, "study transitioned",
		"request_id", requestcontext.RequestID(ctx),
		"study_id", studyID,
		"user_id", actor.UserID,
		"event", event,
		"from", outcome.From,
		"to", outcome.To,
	)
	return s.view(ctx, updated), nil
}

// UpdatedAt keys the risk cache, so it must move on every write even when
// the clock has not.
func nextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func (s *Service) conflict(ctx context.Context, event string, studyID id.StudyID) error {
	s.metrics.IncConflict(event)
	s.logger.InfoContext(ctx, "study transition conflict",
		"request_id", requestcontext.RequestID(ctx),
		"study_id", studyID,
		"event", event,
	)
	return dErrors.New(dErrors.CodeConflict, "study changed since it was read; reload and retry")
}

// readiness gathers the readiness facts for st as they stand now. Admins
// without an account count as unconfirmed.
func (s *Service) readiness(ctx context.Context, st *models.Study) (workflow.Readiness, error) {
	var r workflow.Readiness
	ok, err := s.agreements.HasConfirmedCurrent(ctx, st.OwnerID, id.AgreementStudyOwner)
	if err != nil {
		return r, err
	}
	r.OwnerConfirmed = ok

	for _, username := range st.AdminUsernames {
		userID, found, err := s.directory.LookupUsername(ctx, username)
		if err != nil {
			return r, err
		}
		confirmed := false
		if found {
			if confirmed, err = s.agreements.HasConfirmedCurrent(ctx, userID, id.AgreementStudyOwner); err != nil {
				return r, err
			}
		}
		if !confirmed {
			r.UnconfirmedAdmins = append(r.UnconfirmedAdmins, username)
		}
	}

	if r.AssetCount, err = s.assets.CountByStudy(ctx, st.ID); err != nil {
		return r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count assets")
	}
	return r, nil
}

// RegisterAsset records an asset against a study the actor manages.
func (s *Service) RegisterAsset(ctx context.Context, actor id.Actor, studyID id.StudyID, name string) (*models.Asset, error) {
	st, err := s.load(ctx, actor, studyID)
	if err != nil {
		return nil, err
	}
	if !st.CanManage(actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner or a study admin may register assets")
	}
	a, err := models.NewAsset(id.AssetID(uuid.New()), studyID, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.assets.AddAsset(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register asset")
		}
		return s.emit(ctx, audit.Event{
			Action:      audit.EventStudyAssetRegistered,
			ActorID:     actor.UserID,
			SubjectType: "study",
			SubjectID:   studyID.String(),
			Reason:      a.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Risk returns the study's assessment.
func (s *Service) Risk(ctx context.Context, actor id.Actor, studyID id.StudyID) (risk.Assessment, error) {
	st, err := s.load(ctx, actor, studyID)
	if err != nil {
		return risk.Assessment{}, err
	}
	return s.assess(ctx, st), nil
}

func (s *Service) load(ctx context.Context, actor id.Actor, studyID id.StudyID) (*models.Study, error) {
	if actor.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	st, err := s.store.FindByID(ctx, studyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "study not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load study")
	}
	if !st.CanManage(actor) && !actor.Roles.IsReviewer() {
		return nil, dErrors.New(dErrors.CodeNotFound, "study not found")
	}
	return st, nil
}

func (s *Service) view(ctx context.Context, st *models.Study) *View {
	return &View{Study: st, Risk: s.assess(ctx, st)}
}

// assess reads through the cache. Cache trouble is logged and ignored.
func (s *Service) assess(ctx context.Context, st *models.Study) risk.Assessment {
	if s.cache == nil {
		a := risk.Score(st.Declarations)
		s.metrics.ObserveRiskScore(a.Score)
		return a
	}
	cached, found, err := s.cache.Get(ctx, st.ID, st.UpdatedAt)
	switch {
	case err != nil:
		s.metrics.IncRiskCache("error")
		s.logger.WarnContext(ctx, "risk cache read failed",
			"request_id", requestcontext.RequestID(ctx),
			"study_id", st.ID,
			"error", err,
		)
	case found:
		s.metrics.IncRiskCache("hit")
		return *cached
	default:
		s.metrics.IncRiskCache("miss")
	}

	a := risk.Score(st.Declarations)
	s.metrics.ObserveRiskScore(a.Score)
	if err := s.cache.Set(ctx, st.ID, st.UpdatedAt, a); err != nil {
		s.logger.WarnContext(ctx, "risk cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"study_id", st.ID,
			"error", err,
		)
	}
	return a
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}
