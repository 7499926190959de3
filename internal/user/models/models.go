package models

import (
	"strings"
	"time"

	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

// User is the identity anchor. Username is immutable; roles are synced from
// the identity provider and never edited here.
type User struct {
	ID         id.UserID
	Username   string
	ChosenName *ChosenName
	Roles      id.RoleSet
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const maxUsernameLength = 128

// NewUser builds a user on first successful authentication.
func NewUser(userID id.UserID, username string, roles id.RoleSet, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}
	if len(username) > maxUsernameLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "username is too long")
	}
	return &User{
		ID:        userID,
		Username:  username,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasChosenName reports whether a chosen name has been set.
func (u *User) HasChosenName() bool {
	return u.ChosenName != nil && !u.ChosenName.IsZero()
}
