//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"steward/internal/agreement/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	"steward/pkg/testutil/containers"
)

type PostgresAgreementStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
	now   time.Time
	user  id.UserID
}

func TestPostgresAgreementStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresAgreementStoreSuite))
}

func (s *PostgresAgreementStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresAgreementStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "agreement_confirmations", "agreements", "users"))
	s.user = id.UserID(uuid.New())
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO users (id, username, created_at, updated_at) VALUES ($1, $2, $3, $3)`,
		uuid.UUID(s.user), "ada", s.now)
	s.Require().NoError(err)
}

func (s *PostgresAgreementStoreSuite) publish(t id.AgreementType, version int) *models.Agreement {
	a, err := models.NewAgreement(id.AgreementID(uuid.New()), t, version, fmt.Sprintf("terms v%d", version), s.now.Add(time.Duration(version)*time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, a))
	return a
}

func (s *PostgresAgreementStoreSuite) TestCurrentIsHighestVersion() {
	s.publish(id.AgreementApprovedResearcher, 1)
	v2 := s.publish(id.AgreementApprovedResearcher, 2)
	s.publish(id.AgreementStudyOwner, 1)

	current, err := s.store.Current(s.ctx, id.AgreementApprovedResearcher)
	s.Require().NoError(err)
	s.Equal(v2.ID, current.ID)
	s.Equal(2, current.Version)
}

func (s *PostgresAgreementStoreSuite) TestNothingPublished() {
	_, err := s.store.Current(s.ctx, id.AgreementStudyOwner)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresAgreementStoreSuite) TestDuplicateVersionConflicts() {
	s.publish(id.AgreementApprovedResearcher, 1)
	dup, err := models.NewAgreement(id.AgreementID(uuid.New()), id.AgreementApprovedResearcher, 1, "other", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresAgreementStoreSuite) TestConfirmationsAreAppendOnly() {
	v1 := s.publish(id.AgreementApprovedResearcher, 1)
	v2 := s.publish(id.AgreementApprovedResearcher, 2)
	for _, a := range []*models.Agreement{v1, v2} {
		s.Require().NoError(s.store.AddConfirmation(s.ctx, &models.Confirmation{
			UserID:        s.user,
			AgreementID:   a.ID,
			AgreementType: a.Type,
			ConfirmedAt:   s.now,
		}))
	}

	list, err := s.store.ListConfirmations(s.ctx, s.user)
	s.Require().NoError(err)
	s.Len(list, 2)
	s.True(models.HasConfirmed(list, v1.ID))
	s.True(models.HasConfirmed(list, v2.ID))
}
