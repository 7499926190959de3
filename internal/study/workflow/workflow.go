// Package workflow decides approval transitions for a study. Decide is pure;
// the caller supplies every fact and applies the outcome with a
// compare-and-swap on the pre-state.
package workflow

import (
	"strings"

	"steward/internal/study/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

type Event string

const (
	EventMarkReadyForReview Event = "mark-ready-for-review"
	EventApprove            Event = "approve"
	EventRequestChanges     Event = "request-changes"
	EventAmendFeedback      Event = "amend-feedback"
	EventEditContent        Event = "edit-content"
)

// ApprovedEditPolicy controls what editing an approved study does.
type ApprovedEditPolicy string

const (
	// ApprovedEditRevert sends the study back to Incomplete for re-review.
	ApprovedEditRevert ApprovedEditPolicy = "revert"
	// ApprovedEditRetain keeps the study Approved.
	ApprovedEditRetain ApprovedEditPolicy = "retain"
)

func (p ApprovedEditPolicy) IsValid() bool {
	switch p {
	case ApprovedEditRevert, ApprovedEditRetain:
		return true
	default:
		return false
	}
}

type Policy struct {
	ApprovedEdit           ApprovedEditPolicy
	ClearFeedbackOnApprove bool
}

func DefaultPolicy() Policy {
	return Policy{ApprovedEdit: ApprovedEditRevert, ClearFeedbackOnApprove: true}
}

// Command is a transition request by an explicit actor.
type Command struct {
	Event    Event
	Actor    id.Actor
	Feedback string
	// ActorIsApprovedResearcher must be evaluated at the time of the command.
	ActorIsApprovedResearcher bool
}

// Subject is the study snapshot the command applies to.
type Subject struct {
	Status         models.Status
	OwnerID        id.UserID
	AdminUsernames []string
	Feedback       *string
}

func SubjectOf(s *models.Study) Subject {
	return Subject{
		Status:         s.ApprovalStatus,
		OwnerID:        s.OwnerID,
		AdminUsernames: s.AdminUsernames,
		Feedback:       s.Feedback,
	}
}

func (s Subject) canManage(actor id.Actor) bool {
	if actor.IsAnonymous() {
		return false
	}
	if s.OwnerID == actor.UserID {
		return true
	}
	for _, u := range s.AdminUsernames {
		if u != "" && u == actor.Username {
			return true
		}
	}
	return false
}

// Readiness is the fact set behind the readiness predicate. It must be
// gathered at the instant of the transition.
type Readiness struct {
	OwnerConfirmed    bool
	UnconfirmedAdmins []string
	AssetCount        int
}

func (r Readiness) Ready() bool {
	return r.OwnerConfirmed && len(r.UnconfirmedAdmins) == 0 && r.AssetCount >= 1
}

func (r Readiness) describe() string {
	var missing []string
	if !r.OwnerConfirmed {
		missing = append(missing, "owner has not confirmed the current study-owner agreement")
	}
	if len(r.UnconfirmedAdmins) > 0 {
		missing = append(missing, "study admins have not confirmed the study-owner agreement: "+strings.Join(r.UnconfirmedAdmins, ", "))
	}
	if r.AssetCount < 1 {
		missing = append(missing, "at least one asset is required")
	}
	return strings.Join(missing, "; ")
}

// Outcome is the state to write. Feedback is the full new feedback value
// when FeedbackChanged.
type Outcome struct {
	From            models.Status
	To              models.Status
	Feedback        *string
	FeedbackChanged bool
}

type transition struct {
	from  models.Status
	event Event
}

var legal = map[transition]bool{
	{models.StatusIncomplete, EventMarkReadyForReview}: true,
	{models.StatusRejected, EventMarkReadyForReview}:   true,
	{models.StatusPending, EventApprove}:               true,
	{models.StatusPending, EventRequestChanges}:        true,
	{models.StatusApproved, EventAmendFeedback}:        true,
	{models.StatusIncomplete, EventEditContent}:        true,
	{models.StatusRejected, EventEditContent}:          true,
	{models.StatusApproved, EventEditContent}:          true,
}

// Decide checks, in order, that the event is legal from the current status,
// that the actor may issue it, and then the content guards. Each failure is
// a guard violation with its own reason.
func Decide(cmd Command, subject Subject, readiness Readiness, policy Policy) (Outcome, error) {
	if !legal[transition{subject.Status, cmd.Event}] {
		return Outcome{}, dErrors.Guard(dErrors.ReasonInvalidTransition,
			string(cmd.Event)+" is not allowed from "+string(subject.Status))
	}
	if err := authorize(cmd, subject); err != nil {
		return Outcome{}, err
	}

	out := Outcome{From: subject.Status, To: subject.Status, Feedback: subject.Feedback}
	switch cmd.Event {
	case EventMarkReadyForReview:
		if !readiness.Ready() {
			return Outcome{}, dErrors.Guard(dErrors.ReasonNotReady, "study is not ready for review: "+readiness.describe())
		}
		out.To = models.StatusPending

	case EventApprove:
		out.To = models.StatusApproved
		if policy.ClearFeedbackOnApprove && subject.Feedback != nil {
			out.Feedback = nil
			out.FeedbackChanged = true
		}

	case EventRequestChanges:
		feedback := strings.TrimSpace(cmd.Feedback)
		if feedback == "" {
			return Outcome{}, dErrors.Guard(dErrors.ReasonFeedbackRequired, "feedback is required to request changes")
		}
		out.To = models.StatusRejected
		out.Feedback = &feedback
		out.FeedbackChanged = true

	case EventAmendFeedback:
		feedback := strings.TrimSpace(cmd.Feedback)
		if feedback == "" {
			out.Feedback = nil
		} else {
			out.Feedback = &feedback
		}
		out.FeedbackChanged = true

	case EventEditContent:
		if subject.Status == models.StatusApproved && policy.ApprovedEdit != ApprovedEditRetain {
			out.To = models.StatusIncomplete
		}
	}
	return out, nil
}

func authorize(cmd Command, subject Subject) error {
	switch cmd.Event {
	case EventMarkReadyForReview:
		if !subject.canManage(cmd.Actor) {
			return dErrors.Guard(dErrors.ReasonUnauthorized, "only the owner or a study admin may submit for review")
		}
		if !cmd.ActorIsApprovedResearcher {
			return dErrors.Guard(dErrors.ReasonUnauthorized, "only an approved researcher may submit for review")
		}
	case EventApprove, EventRequestChanges, EventAmendFeedback:
		if !cmd.Actor.Roles.IsReviewer() {
			return dErrors.Guard(dErrors.ReasonUnauthorized, "reviewer role required")
		}
	case EventEditContent:
		if !subject.canManage(cmd.Actor) {
			return dErrors.Guard(dErrors.ReasonUnauthorized, "only the owner or a study admin may edit")
		}
	default:
		return dErrors.Guard(dErrors.ReasonInvalidTransition, "unknown event")
	}
	return nil
}
