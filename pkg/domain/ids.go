package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "steward/pkg/domain-errors"
)

// Typed identifiers. Distinct types stop a StudyID being passed where a UserID
// is expected; conversion requires an explicit cast.
type (
	UserID      uuid.UUID
	StudyID     uuid.UUID
	AgreementID uuid.UUID
	AssetID     uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) || strings.ContainsRune(s, 0) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

// ParseUserID parses a user id at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user_id", s)
	return UserID(u), err
}

// ParseStudyID parses a study id at a trust boundary.
func ParseStudyID(s string) (StudyID, error) {
	u, err := parseUUID("study_id", s)
	return StudyID(u), err
}

// ParseAgreementID parses an agreement id at a trust boundary.
func ParseAgreementID(s string) (AgreementID, error) {
	u, err := parseUUID("agreement_id", s)
	return AgreementID(u), err
}

// ParseAssetID parses an asset id at a trust boundary.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID("asset_id", s)
	return AssetID(u), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id StudyID) String() string     { return uuid.UUID(id).String() }
func (id AgreementID) String() string { return uuid.UUID(id).String() }
func (id AssetID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id StudyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AgreementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id StudyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id AgreementID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AssetID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
