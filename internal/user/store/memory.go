package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"steward/internal/user/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

// InMemory is a mutex-guarded user store for tests and single-node runs.
type InMemory struct {
	mu         sync.RWMutex
	users      map[id.UserID]*models.User
	byUsername map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:      make(map[id.UserID]*models.User),
		byUsername: make(map[string]id.UserID),
	}
}

func (s *InMemory) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byUsername[u.Username]; ok {
		return sentinel.ErrConflict
	}
	s.users[u.ID] = clone(u)
	s.byUsername[u.Username] = u.ID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.users, u.ID)
		delete(s.byUsername, u.Username)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(u), nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.users[userID]), nil
}

func (s *InMemory) UpdateRoles(ctx context.Context, userID id.UserID, roles id.RoleSet, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	next := clone(u)
	next.Roles = slices.Clone(roles)
	next.UpdatedAt = now
	s.replace(ctx, u, next)
	return nil
}

// SetChosenName writes name. With onlyIfUnset an existing name yields
// sentinel.ErrAlreadyUsed and nothing changes.
func (s *InMemory) SetChosenName(ctx context.Context, userID id.UserID, name models.ChosenName, onlyIfUnset bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if onlyIfUnset && u.HasChosenName() {
		return sentinel.ErrAlreadyUsed
	}
	next := clone(u)
	next.ChosenName = &name
	next.UpdatedAt = now
	s.replace(ctx, u, next)
	return nil
}

// replace swaps prev for next; a rollback restores prev unless a later write
// already replaced next. Callers hold mu.
func (s *InMemory) replace(ctx context.Context, prev, next *models.User) {
	s.users[next.ID] = next
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.users[next.ID] == next {
			s.users[next.ID] = prev
		}
	})
}

func clone(u *models.User) *models.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	if u.ChosenName != nil {
		n := *u.ChosenName
		c.ChosenName = &n
	}
	return &c
}
