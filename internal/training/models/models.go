package models

import (
	"regexp"
	"strings"
	"time"

	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

// Kind names a training programme, e.g. "nhsd".
type Kind string

const KindNHSD Kind = "nhsd"

var kindPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// ParseKind constructs a Kind from external input.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !kindPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid training kind")
	}
	return Kind(s), nil
}

func (k Kind) String() string { return string(k) }

// Record is the current completion of one training kind by one user. A new
// submission for the same kind replaces it.
type Record struct {
	UserID         id.UserID
	Kind           Kind
	CompletedAt    time.Time
	CertificateRef string
	SubmittedAt    time.Time
}

// NewRecord validates a submission. Completion dates in the future are refused.
func NewRecord(userID id.UserID, kind Kind, completedAt time.Time, certificateRef string, now time.Time) (*Record, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if completedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "completed_at is required")
	}
	if completedAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "completed_at cannot be in the future")
	}
	return &Record{
		UserID:         userID,
		Kind:           kind,
		CompletedAt:    completedAt,
		CertificateRef: strings.TrimSpace(certificateRef),
		SubmittedAt:    now,
	}, nil
}
