package models

import (
	"strings"
	"time"

	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

// Agreement is one published version of a legal text. It is immutable; a new
// version is a new Agreement with a new ID.
type Agreement struct {
	ID          id.AgreementID
	Type        id.AgreementType
	Version     int
	Text        string
	PublishedAt time.Time
}

const maxTextLength = 64 * 1024

// NewAgreement validates a new version.
func NewAgreement(agreementID id.AgreementID, t id.AgreementType, version int, text string, now time.Time) (*Agreement, error) {
	if !t.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid agreement type")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "agreement text is required")
	}
	if len(text) > maxTextLength {
		return nil, dErrors.New(dErrors.CodeValidation, "agreement text is too long")
	}
	if version < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agreement version must be positive")
	}
	return &Agreement{
		ID:          agreementID,
		Type:        t,
		Version:     version,
		Text:        text,
		PublishedAt: now,
	}, nil
}

// Confirmation records that a user confirmed a specific agreement version.
// Confirmations are append-only.
type Confirmation struct {
	UserID        id.UserID
	AgreementID   id.AgreementID
	AgreementType id.AgreementType
	ConfirmedAt   time.Time
}

// HasConfirmed reports whether any confirmation names agreementID.
func HasConfirmed(confirmations []Confirmation, agreementID id.AgreementID) bool {
	for _, c := range confirmations {
		if c.AgreementID == agreementID {
			return true
		}
	}
	return false
}
