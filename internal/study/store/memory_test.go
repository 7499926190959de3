package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"steward/internal/study/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
)

type InMemoryStudyStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
	owner id.UserID
}

func TestInMemoryStudyStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStudyStoreSuite))
}

func (s *InMemoryStudyStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.owner = id.UserID(uuid.New())
}

func (s *InMemoryStudyStoreSuite) newStudy(title string, at time.Time) *models.Study {
	st, err := models.NewStudy(id.StudyID(uuid.New()), s.owner, "owner",
		models.Content{Title: title, AdminUsernames: []string{"bob"}}, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, st))
	return st
}

func (s *InMemoryStudyStoreSuite) TestCompareAndSwap() {
	st := s.newStudy("CAS", s.now)
	var pending *models.Study

	s.Run("matching revision applies the mutation", func() {
		var err error
		pending, err = s.store.CompareAndSwap(s.ctx, st.ID, st.Revision(), func(x *models.Study) error {
			x.ApprovalStatus = models.StatusPending
			x.UpdatedAt = s.now.Add(time.Minute)
			return nil
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, pending.ApprovalStatus)
	})

	s.Run("stale status conflicts", func() {
		_, err := s.store.CompareAndSwap(s.ctx, st.ID, st.Revision(), func(x *models.Study) error {
			x.ApprovalStatus = models.StatusApproved
			return nil
		})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("mutation errors write nothing", func() {
		boom := errors.New("boom")
		_, err := s.store.CompareAndSwap(s.ctx, st.ID, pending.Revision(), func(x *models.Study) error {
			x.ApprovalStatus = models.StatusApproved
			return boom
		})
		s.ErrorIs(err, boom)
		found, err := s.store.FindByID(s.ctx, st.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, found.ApprovalStatus)
	})

	s.Run("missing study", func() {
		_, err := s.store.CompareAndSwap(s.ctx, id.StudyID(uuid.New()), models.Revision{Status: models.StatusPending}, func(*models.Study) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStudyStoreSuite) TestSwapAfterContentEditConflicts() {
	st := s.newStudy("edited underneath", s.now)
	read := st.Revision()

	_, err := s.store.CompareAndSwap(s.ctx, st.ID, read, func(x *models.Study) error {
		x.AdminUsernames = append(x.AdminUsernames, "carol")
		x.UpdatedAt = s.now.Add(time.Second)
		return nil
	})
	s.Require().NoError(err)

	_, err = s.store.CompareAndSwap(s.ctx, st.ID, read, func(x *models.Study) error {
		x.ApprovalStatus = models.StatusPending
		return nil
	})
	s.ErrorIs(err, sentinel.ErrConflict, "status is unchanged but the study is not the one that was read")

	found, err := s.store.FindByID(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusIncomplete, found.ApprovalStatus)
}

func (s *InMemoryStudyStoreSuite) TestConcurrentSwapsHaveOneWinner() {
	st := s.newStudy("race", s.now)
	const racers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.CompareAndSwap(s.ctx, st.ID, st.Revision(), func(x *models.Study) error {
				x.ApprovalStatus = models.StatusPending
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)
	s.Equal(racers-1, conflicts)
}

func (s *InMemoryStudyStoreSuite) TestList() {
	older := s.newStudy("older", s.now)
	newer := s.newStudy("newer", s.now.Add(time.Hour))
	other, err := models.NewStudy(id.StudyID(uuid.New()), id.UserID(uuid.New()), "someone", models.Content{Title: "other"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, other))

	s.Run("most recently updated first", func() {
		list, err := s.store.List(s.ctx, models.ListFilter{VisibleTo: &models.Visibility{UserID: s.owner}})
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(newer.ID, list[0].ID)
		s.Equal(older.ID, list[1].ID)
	})

	s.Run("study admins see studies by username", func() {
		list, err := s.store.List(s.ctx, models.ListFilter{VisibleTo: &models.Visibility{UserID: id.UserID(uuid.New()), Username: "bob"}})
		s.Require().NoError(err)
		s.Len(list, 2)
	})

	s.Run("status filter and paging", func() {
		pending := models.StatusPending
		list, err := s.store.List(s.ctx, models.ListFilter{Status: &pending})
		s.Require().NoError(err)
		s.Empty(list)

		list, err = s.store.List(s.ctx, models.ListFilter{Limit: 1, Offset: 1})
		s.Require().NoError(err)
		s.Len(list, 1)
	})
}

func (s *InMemoryStudyStoreSuite) TestAssets() {
	st := s.newStudy("assets", s.now)
	n, err := s.store.CountByStudy(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Zero(n)

	a, err := models.NewAsset(id.AssetID(uuid.New()), st.ID, "cohort extract", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddAsset(s.ctx, a))
	s.ErrorIs(s.store.AddAsset(s.ctx, a), sentinel.ErrConflict)

	n, err = s.store.CountByStudy(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal(1, n)

	orphan, err := models.NewAsset(id.AssetID(uuid.New()), id.StudyID(uuid.New()), "orphan", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.AddAsset(s.ctx, orphan), sentinel.ErrNotFound)
}
