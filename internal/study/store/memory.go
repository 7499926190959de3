package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"steward/internal/study/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

// InMemory holds studies and assets behind one mutex, which makes
// CompareAndSwap atomic.
type InMemory struct {
	mu      sync.RWMutex
	studies map[id.StudyID]*models.Study
	assets  map[id.StudyID][]models.Asset
}

func NewInMemory() *InMemory {
	return &InMemory{
		studies: make(map[id.StudyID]*models.Study),
		assets:  make(map[id.StudyID][]models.Asset),
	}
}

func (s *InMemory) Create(ctx context.Context, st *models.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studies[st.ID]; ok {
		return sentinel.ErrConflict
	}
	s.studies[st.ID] = st.Clone()
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.studies, st.ID)
		delete(s.assets, st.ID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, studyID id.StudyID) (*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.studies[studyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return st.Clone(), nil
}

// List returns matching studies, most recently updated first.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Study
	for _, st := range s.studies {
		if filter.Status != nil && st.ApprovalStatus != *filter.Status {
			continue
		}
		if v := filter.VisibleTo; v != nil && !st.IsOwner(v.UserID) && !st.IsStudyAdmin(v.Username) {
			continue
		}
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CompareAndSwap applies mutate only if the stored study is still at
// expected. A mismatch returns sentinel.ErrConflict and writes nothing; an
// error from mutate also writes nothing and is returned as is.
func (s *InMemory) CompareAndSwap(ctx context.Context, studyID id.StudyID, expected models.Revision, mutate func(*models.Study) error) (*models.Study, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.studies[studyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !expected.Matches(current) {
		return nil, sentinel.ErrConflict
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.studies[studyID] = next
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.studies[studyID] == next {
			s.studies[studyID] = current
		}
	})
	return next.Clone(), nil
}

func (s *InMemory) AddAsset(ctx context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studies[a.StudyID]; !ok {
		return sentinel.ErrNotFound
	}
	if slices.ContainsFunc(s.assets[a.StudyID], func(existing models.Asset) bool { return existing.ID == a.ID }) {
		return sentinel.ErrConflict
	}
	s.assets[a.StudyID] = append(s.assets[a.StudyID], *a)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.assets[a.StudyID] = slices.DeleteFunc(s.assets[a.StudyID], func(existing models.Asset) bool { return existing.ID == a.ID })
	})
	return nil
}

func (s *InMemory) CountByStudy(_ context.Context, studyID id.StudyID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets[studyID]), nil
}
