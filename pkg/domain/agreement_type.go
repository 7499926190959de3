package domain

import dErrors "steward/pkg/domain-errors"

// AgreementType identifies a family of versioned legal texts.
// Invariant: the value must be one of the supported types.
//
// Usage: construct via ParseAgreementType at trust boundaries; direct casting
// bypasses validation.
type AgreementType string

const (
	AgreementApprovedResearcher AgreementType = "approved-researcher"
	AgreementStudyOwner         AgreementType = "study-owner"
)

var validAgreementTypes = map[AgreementType]bool{
	AgreementApprovedResearcher: true,
	AgreementStudyOwner:         true,
}

// ParseAgreementType constructs an AgreementType from external input.
func ParseAgreementType(s string) (AgreementType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "agreement type cannot be empty")
	}
	t := AgreementType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid agreement type")
	}
	return t, nil
}

func (t AgreementType) IsValid() bool {
	return validAgreementTypes[t]
}

func (t AgreementType) String() string {
	return string(t)
}
