package store

import (
	"context"
	"sort"
	"sync"

	"steward/internal/training/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

type recordKey struct {
	user id.UserID
	kind models.Kind
}

// InMemory keeps the current record per (user, kind).
type InMemory struct {
	mu      sync.RWMutex
	records map[recordKey]models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[recordKey]models.Record)}
}

// Upsert replaces any prior record for the same user and kind.
func (s *InMemory) Upsert(ctx context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{rec.UserID, rec.Kind}
	prior, existed := s.records[k]
	written := *rec
	s.records[k] = written
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.records[k] != written {
			return
		}
		if existed {
			s.records[k] = prior
		} else {
			delete(s.records, k)
		}
	})
	return nil
}

func (s *InMemory) Find(_ context.Context, userID id.UserID, kind models.Kind) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{userID, kind}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// ListByUser returns the user's records ordered by kind.
func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for k, rec := range s.records {
		if k.user == userID {
			r := rec
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}
