package adapters

import (
	"context"

	agreementservice "steward/internal/agreement/service"
	"steward/internal/eligibility/models"
	"steward/internal/eligibility/ports"
	usermodels "steward/internal/user/models"
	userservice "steward/internal/user/service"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

// ProfileAdapter reads chosen names from the user service in process.
type ProfileAdapter struct {
	users *userservice.Service
}

func NewProfileAdapter(users *userservice.Service) ports.ProfilePort {
	return &ProfileAdapter{users: users}
}

func (a *ProfileAdapter) ChosenName(ctx context.Context, userID id.UserID) (string, error) {
	u, err := a.users.Get(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return "", nil
		}
		return "", err
	}
	return chosenName(u), nil
}

func (a *ProfileAdapter) RequireFullName() bool {
	return a.users.RequireFullName()
}

func chosenName(u *usermodels.User) string {
	if !u.HasChosenName() {
		return ""
	}
	return u.ChosenName.String()
}

// AgreementAdapter reads agreements and confirmations in process.
type AgreementAdapter struct {
	agreements *agreementservice.Service
}

func NewAgreementAdapter(agreements *agreementservice.Service) ports.AgreementPort {
	return &AgreementAdapter{agreements: agreements}
}

func (a *AgreementAdapter) CurrentID(ctx context.Context, t id.AgreementType) (*id.AgreementID, error) {
	return a.agreements.CurrentID(ctx, t)
}

func (a *AgreementAdapter) Confirmations(ctx context.Context, userID id.UserID) ([]models.ConfirmedAgreement, error) {
	list, err := a.agreements.ListConfirmations(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConfirmedAgreement, 0, len(list))
	for _, c := range list {
		out = append(out, models.ConfirmedAgreement{
			AgreementType: c.AgreementType,
			AgreementID:   c.AgreementID,
			ConfirmedAt:   c.ConfirmedAt,
		})
	}
	return out, nil
}
