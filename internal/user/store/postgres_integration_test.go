//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"steward/internal/user/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	"steward/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
	now   time.Time
}

func TestPostgresUserStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "users"))
}

func (s *PostgresUserStoreSuite) newUser(username string) *models.User {
	u, err := models.NewUser(id.UserID(uuid.New()), username, id.RoleSet{id.RoleBase, id.RoleApprovedStaffResearcher}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, u))
	return u
}

func (s *PostgresUserStoreSuite) TestRoundTrip() {
	u := s.newUser("ada")

	got, err := s.store.FindByUsername(s.ctx, "ada")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal(u.Roles, got.Roles)
	s.False(got.HasChosenName())

	_, err = s.store.FindByID(s.ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestDuplicateUsernameConflicts() {
	s.newUser("ada")
	dup, err := models.NewUser(id.UserID(uuid.New()), "ada", id.RoleSet{id.RoleBase}, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresUserStoreSuite) TestSetChosenNameOnlyIfUnset() {
	u := s.newUser("ada")
	first := models.MustChosenName("Ada Lovelace")
	second := models.MustChosenName("Augusta King")

	s.Require().NoError(s.store.SetChosenName(s.ctx, u.ID, first, true, s.now))
	s.ErrorIs(s.store.SetChosenName(s.ctx, u.ID, second, true, s.now), sentinel.ErrAlreadyUsed)
	s.Require().NoError(s.store.SetChosenName(s.ctx, u.ID, second, false, s.now))

	got, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("Augusta King", got.ChosenName.String())

	s.ErrorIs(s.store.SetChosenName(s.ctx, id.UserID(uuid.New()), first, false, s.now), sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestUpdateRoles() {
	u := s.newUser("ada")
	s.Require().NoError(s.store.UpdateRoles(s.ctx, u.ID, id.RoleSet{id.RoleIGOpsStaff}, s.now.Add(time.Hour)))

	got, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(id.RoleSet{id.RoleIGOpsStaff}, got.Roles)
}
