//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

package ports

import (
	"context"

	"steward/internal/eligibility/models"
	trainingmodels "steward/internal/training/models"
	id "steward/pkg/domain"
)

// ProfilePort resolves the subject's chosen name and the name rule in force.
// An unknown user has no chosen name.
type ProfilePort interface {
	ChosenName(ctx context.Context, userID id.UserID) (string, error)
	RequireFullName() bool
}

// AgreementPort resolves the current agreement and the subject's
// confirmations. CurrentID returns nil when nothing is published.
type AgreementPort interface {
	CurrentID(ctx context.Context, t id.AgreementType) (*id.AgreementID, error)
	Confirmations(ctx context.Context, userID id.UserID) ([]models.ConfirmedAgreement, error)
}

// TrainingPort evaluates training validity at call time.
type TrainingPort interface {
	RequiredKinds() []trainingmodels.Kind
	Validities(ctx context.Context, userID id.UserID) (map[trainingmodels.Kind]trainingmodels.Validity, error)
}
