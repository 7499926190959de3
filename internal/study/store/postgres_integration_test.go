//go:build integration

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
	usermodels "steward/internal/user/models"
	userstore "steward/internal/user/store"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	"steward/pkg/testutil/containers"
)

type PostgresStudyStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
	owner *usermodels.User
}

func TestPostgresStudyStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStudyStoreSuite))
}

func (s *PostgresStudyStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStudyStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "study_assets", "studies", "users"))
	owner, err := usermodels.NewUser(id.UserID(uuid.New()), "owner", id.RoleSet{id.RoleApprovedStaffResearcher}, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(userstore.NewPostgres(s.pg.DB).Create(s.ctx, owner))
	s.owner = owner
}

func (s *PostgresStudyStoreSuite) newStudy(title string) *models.Study {
	st, err := models.NewStudy(id.StudyID(uuid.New()), s.owner.ID, s.owner.Username, models.Content{
		Title:          title,
		AdminUsernames: []string{"bob", "carol"},
		Declarations:   models.Declarations{RequiresDBS: models.Bool(true)},
	}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, st))
	return st
}

func (s *PostgresStudyStoreSuite) TestRoundTrip() {
	st := s.newStudy("round trip")
	found, err := s.store.FindByID(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal(st.Title, found.Title)
	s.Equal([]string{"bob", "carol"}, found.AdminUsernames)
	s.True(models.Is(found.Declarations.RequiresDBS))
	s.Nil(found.Declarations.InvolvesCAG)
	s.Equal(models.StatusIncomplete, found.ApprovalStatus)
	s.Nil(found.Feedback)

	_, err = s.store.FindByID(s.ctx, id.StudyID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStudyStoreSuite) TestConcurrentCompareAndSwap() {
	st := s.newStudy("race")
	pending, err := s.store.CompareAndSwap(s.ctx, st.ID, st.Revision(), func(x *models.Study) error {
		x.ApprovalStatus = models.StatusPending
		x.UpdatedAt = x.UpdatedAt.Add(time.Second)
		return nil
	})
	s.Require().NoError(err)

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = s.store.CompareAndSwap(s.ctx, st.ID, pending.Revision(), func(x *models.Study) error {
				x.ApprovalStatus = models.StatusApproved
				return nil
			})
		}()
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, sentinel.ErrConflict):
			conflicts++
		}
	}
	s.Equal(1, wins)
	s.Equal(1, conflicts)

	found, err := s.store.FindByID(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, found.ApprovalStatus)
}

func (s *PostgresStudyStoreSuite) TestSwapAfterContentEditConflicts() {
	st := s.newStudy("edited underneath")
	read := st.Revision()

	_, err := s.store.CompareAndSwap(s.ctx, st.ID, read, func(x *models.Study) error {
		x.AdminUsernames = append(x.AdminUsernames, "dave")
		x.UpdatedAt = x.UpdatedAt.Add(time.Millisecond)
		return nil
	})
	s.Require().NoError(err)

	_, err = s.store.CompareAndSwap(s.ctx, st.ID, read, func(x *models.Study) error {
		x.ApprovalStatus = models.StatusPending
		return nil
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	found, err := s.store.FindByID(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusIncomplete, found.ApprovalStatus)
	s.Contains(found.AdminUsernames, "dave")
}

func (s *PostgresStudyStoreSuite) TestListVisibility() {
	s.newStudy("first")
	s.newStudy("second")

	list, err := s.store.List(s.ctx, models.ListFilter{VisibleTo: &models.Visibility{UserID: id.UserID(uuid.New()), Username: "carol"}})
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.store.List(s.ctx, models.ListFilter{VisibleTo: &models.Visibility{UserID: id.UserID(uuid.New()), Username: "mallory"}})
	s.Require().NoError(err)
	s.Empty(list)

	pending := models.StatusPending
	list, err = s.store.List(s.ctx, models.ListFilter{Status: &pending, Limit: 10})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *PostgresStudyStoreSuite) TestAssets() {
	st := s.newStudy("assets")
	a, err := models.NewAsset(id.AssetID(uuid.New()), st.ID, "extract", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddAsset(s.ctx, a))

	n, err := s.store.CountByStudy(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal(1, n)

	orphan, err := models.NewAsset(id.AssetID(uuid.New()), id.StudyID(uuid.New()), "orphan", time.Now().UTC())
	s.Require().NoError(err)
	s.ErrorIs(s.store.AddAsset(s.ctx, orphan), sentinel.ErrNotFound)
}
