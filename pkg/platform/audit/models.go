package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "steward/pkg/domain"
)

// EventCategory classifies audit events by retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers governance decisions: who became eligible, who
	// approved which study. Long retention, fail-closed persistence.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventUserCreated        AuditEvent = "user_created"
	EventChosenNameSet      AuditEvent = "chosen_name_set"
	EventAgreementPublished AuditEvent = "agreement_published"
	EventAgreementConfirmed AuditEvent = "agreement_confirmed"
	EventTrainingSubmitted  AuditEvent = "training_submitted"

	EventStudyCreated          AuditEvent = "study_created"
	EventStudyContentEdited    AuditEvent = "study_content_edited"
	EventStudyReadyForReview   AuditEvent = "study_ready_for_review"
	EventStudyApproved         AuditEvent = "study_approved"
	EventStudyChangesRequested AuditEvent = "study_changes_requested"
	EventStudyFeedbackAmended  AuditEvent = "study_feedback_amended"
	EventStudyAssetRegistered  AuditEvent = "study_asset_registered"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAgreementPublished:    CategoryCompliance,
	EventAgreementConfirmed:    CategoryCompliance,
	EventTrainingSubmitted:     CategoryCompliance,
	EventChosenNameSet:         CategoryCompliance,
	EventStudyReadyForReview:   CategoryCompliance,
	EventStudyApproved:         CategoryCompliance,
	EventStudyChangesRequested: CategoryCompliance,
	EventStudyFeedbackAmended:  CategoryCompliance,
	EventStudyContentEdited:    CategoryCompliance,

	EventUserCreated:          CategoryOperations,
	EventStudyCreated:         CategoryOperations,
	EventStudyAssetRegistered: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain services to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Action    AuditEvent
	Timestamp time.Time
	ActorID   id.UserID
	// SubjectType and SubjectID identify the aggregate acted on ("study", "user").
	SubjectType string
	SubjectID   string
	FromStatus  string
	ToStatus    string
	Reason      string
	// Diff is a textual patch of a changed free-text field, when one applies.
	Diff      string
	RequestID string
}

// Category derives the category from the action.
func (e Event) Category() EventCategory {
	return e.Action.Category()
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectType, subjectID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxEntry is one event awaiting publication to the message broker.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Outbox is the pending side of the transactional outbox.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
