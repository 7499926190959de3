package adapters

import (
	"context"

	"steward/internal/study/ports"
	userservice "steward/internal/user/service"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

// DirectoryAdapter resolves study admin usernames through the user service.
// The eligibility and agreement services satisfy their ports directly.
type DirectoryAdapter struct {
	users *userservice.Service
}

func NewDirectoryAdapter(users *userservice.Service) ports.DirectoryPort {
	return &DirectoryAdapter{users: users}
}

func (a *DirectoryAdapter) LookupUsername(ctx context.Context, username string) (id.UserID, bool, error) {
	u, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return id.UserID{}, false, nil
		}
		return id.UserID{}, false, err
	}
	return u.ID, true, nil
}
