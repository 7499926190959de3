package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"steward/internal/agreement/store"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/audit"
)

type AgreementServiceSuite struct {
	suite.Suite
	service *Service
	admin   id.Actor
	user    id.Actor
	ctx     context.Context
}

func TestAgreementServiceSuite(t *testing.T) {
	suite.Run(t, new(AgreementServiceSuite))
}

func (s *AgreementServiceSuite) SetupTest() {
	s.service = New(store.NewInMemory())
	s.admin = id.Actor{UserID: id.UserID(uuid.New()), Roles: id.RoleSet{id.RoleAdmin}}
	s.user = id.Actor{UserID: id.UserID(uuid.New()), Roles: id.RoleSet{id.RoleBase}}
	s.ctx = context.Background()
}

func (s *AgreementServiceSuite) TestPublish() {
	s.Run("versions increase per type", func() {
		v1, err := s.service.Publish(s.ctx, s.admin, id.AgreementApprovedResearcher, "v1 text")
		s.Require().NoError(err)
		v2, err := s.service.Publish(s.ctx, s.admin, id.AgreementApprovedResearcher, "v2 text")
		s.Require().NoError(err)
		other, err := s.service.Publish(s.ctx, s.admin, id.AgreementStudyOwner, "owner text")
		s.Require().NoError(err)

		s.Equal(1, v1.Version)
		s.Equal(2, v2.Version)
		s.Equal(1, other.Version)
		s.NotEqual(v1.ID, v2.ID)

		current, err := s.service.Current(s.ctx, id.AgreementApprovedResearcher)
		s.Require().NoError(err)
		s.Equal(v2.ID, current.ID)
	})

	s.Run("non-admins are forbidden", func() {
		_, err := s.service.Publish(s.ctx, s.user, id.AgreementStudyOwner, "text")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("empty text is invalid", func() {
		_, err := s.service.Publish(s.ctx, s.admin, id.AgreementStudyOwner, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AgreementServiceSuite) TestConfirm() {
	v1, err := s.service.Publish(s.ctx, s.admin, id.AgreementApprovedResearcher, "v1")
	s.Require().NoError(err)

	s.Run("current version can be confirmed", func() {
		_, err := s.service.Confirm(s.ctx, s.user, v1.ID)
		s.Require().NoError(err)

		ok, err := s.service.HasConfirmedCurrent(s.ctx, s.user.UserID, id.AgreementApprovedResearcher)
		s.Require().NoError(err)
		s.True(ok)
	})

	v2, err := s.service.Publish(s.ctx, s.admin, id.AgreementApprovedResearcher, "v2")
	s.Require().NoError(err)

	s.Run("a new version invalidates earlier confirmations", func() {
		ok, err := s.service.HasConfirmedCurrent(s.ctx, s.user.UserID, id.AgreementApprovedResearcher)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("superseded version cannot be confirmed", func() {
		_, err := s.service.Confirm(s.ctx, s.user, v1.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown agreement is not found", func() {
		_, err := s.service.Confirm(s.ctx, s.user, id.AgreementID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("confirmation history is append-only", func() {
		_, err := s.service.Confirm(s.ctx, s.user, v2.ID)
		s.Require().NoError(err)
		list, err := s.service.ListConfirmations(s.ctx, s.user.UserID)
		s.Require().NoError(err)
		s.Len(list, 2)
	})
}

func (s *AgreementServiceSuite) TestUnpublishedTypeFailsClosed() {
	currentID, err := s.service.CurrentID(s.ctx, id.AgreementStudyOwner)
	s.Require().NoError(err)
	s.Nil(currentID)

	ok, err := s.service.HasConfirmedCurrent(s.ctx, s.user.UserID, id.AgreementStudyOwner)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.service.Current(s.ctx, id.AgreementStudyOwner)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, audit.Event) error {
	return errors.New("audit store unavailable")
}

func (s *AgreementServiceSuite) TestAuditFailureRollsBackWrites() {
	st := store.NewInMemory()
	healthy := New(st)
	failing := New(st, WithAuditPublisher(failingPublisher{}))

	s.Run("a confirmation is not recorded", func() {
		v1, err := healthy.Publish(s.ctx, s.admin, id.AgreementApprovedResearcher, "v1")
		s.Require().NoError(err)

		_, err = failing.Confirm(s.ctx, s.user, v1.ID)
		s.Require().Error(err)

		ok, err := healthy.HasConfirmedCurrent(s.ctx, s.user.UserID, id.AgreementApprovedResearcher)
		s.Require().NoError(err)
		s.False(ok)
		list, err := healthy.ListConfirmations(s.ctx, s.user.UserID)
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("a version is not published", func() {
		_, err := failing.Publish(s.ctx, s.admin, id.AgreementStudyOwner, "owner text")
		s.Require().Error(err)

		_, err = healthy.Current(s.ctx, id.AgreementStudyOwner)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
