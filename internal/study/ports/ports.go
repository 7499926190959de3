//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

package ports

import (
	"context"

	id "steward/pkg/domain"
)

// EligibilityPort answers whether a user is an approved researcher right now.
type EligibilityPort interface {
	IsApprovedResearcher(ctx context.Context, userID id.UserID) (bool, error)
}

// AgreementPort reports confirmation of the current version of an agreement
// type. Nothing published counts as not confirmed.
type AgreementPort interface {
	HasConfirmedCurrent(ctx context.Context, userID id.UserID, t id.AgreementType) (bool, error)
}

// DirectoryPort resolves study admin usernames to user ids. found is false
// for unknown usernames.
type DirectoryPort interface {
	LookupUsername(ctx context.Context, username string) (userID id.UserID, found bool, err error)
}
