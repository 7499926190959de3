package store

import (
	"context"
	"slices"
	"sync"

	"steward/internal/agreement/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

type InMemory struct {
	mu            sync.RWMutex
	agreements    map[id.AgreementID]models.Agreement
	confirmations []models.Confirmation
}

func NewInMemory() *InMemory {
	return &InMemory{agreements: make(map[id.AgreementID]models.Agreement)}
}

// Create stores a new version. A duplicate (type, version) is a conflict.
func (s *InMemory) Create(ctx context.Context, a *models.Agreement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.agreements {
		if existing.Type == a.Type && existing.Version == a.Version {
			return sentinel.ErrConflict
		}
	}
	s.agreements[a.ID] = *a
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.agreements, a.ID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, agreementID id.AgreementID) (*models.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agreements[agreementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

// Current returns the highest published version of t.
func (s *InMemory) Current(_ context.Context, t id.AgreementType) (*models.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var current *models.Agreement
	for _, a := range s.agreements {
		if a.Type != t {
			continue
		}
		if current == nil || a.Version > current.Version {
			found := a
			current = &found
		}
	}
	if current == nil {
		return nil, sentinel.ErrNotFound
	}
	return current, nil
}

func (s *InMemory) AddConfirmation(ctx context.Context, c *models.Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := *c
	s.confirmations = append(s.confirmations, added)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.confirmations) - 1; i >= 0; i-- {
			if s.confirmations[i] == added {
				s.confirmations = slices.Delete(s.confirmations, i, i+1)
				return
			}
		}
	})
	return nil
}

func (s *InMemory) ListConfirmations(_ context.Context, userID id.UserID) ([]models.Confirmation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Confirmation
	for _, c := range s.confirmations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}
