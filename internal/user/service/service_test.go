package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"steward/internal/user/store"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/audit/publishers/compliance"
	auditmemory "steward/pkg/platform/audit/store/memory"
	"steward/pkg/requestcontext"
)

type UserServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	audit   *auditmemory.InMemoryStore
	service *Service
	user    id.Actor
	admin   id.Actor
	ctx     context.Context
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.store, Config{RequireFullName: true},
		WithAuditPublisher(compliance.New(s.audit)))
	s.user = id.Actor{UserID: id.UserID(uuid.New()), Username: "ada", Roles: id.RoleSet{id.RoleBase}}
	s.admin = id.Actor{UserID: id.UserID(uuid.New()), Username: "root", Roles: id.RoleSet{id.RoleAdmin}}
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))

	_, err := s.service.EnsureUser(s.ctx, s.user)
	s.Require().NoError(err)
	_, err = s.service.EnsureUser(s.ctx, s.admin)
	s.Require().NoError(err)
}

func (s *UserServiceSuite) TestEnsureUser() {
	s.Run("first sight creates the user and audits it", func() {
		u, err := s.service.Get(s.ctx, s.user.UserID)
		s.Require().NoError(err)
		s.Equal("ada", u.Username)
		s.False(u.HasChosenName())

		events, err := s.audit.ListBySubject(s.ctx, "user", s.user.UserID.String())
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(audit.EventUserCreated, events[0].Action)
	})

	s.Run("roles are synced from the identity provider", func() {
		promoted := s.user
		promoted.Roles = id.RoleSet{id.RoleBase, id.RoleApprovedStaffResearcher}
		u, err := s.service.EnsureUser(s.ctx, promoted)
		s.Require().NoError(err)
		s.True(u.Roles.Has(id.RoleApprovedStaffResearcher))

		stored, err := s.service.FindByUsername(s.ctx, "ada")
		s.Require().NoError(err)
		s.True(stored.Roles.Has(id.RoleApprovedStaffResearcher))
	})

	s.Run("username owned by another id conflicts", func() {
		imposter := id.Actor{UserID: id.UserID(uuid.New()), Username: "ada"}
		_, err := s.service.EnsureUser(s.ctx, imposter)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("anonymous actors are refused", func() {
		_, err := s.service.EnsureUser(s.ctx, id.Actor{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *UserServiceSuite) TestSetChosenName() {
	s.Run("invalid names are rejected", func() {
		_, err := s.service.SetChosenName(s.ctx, s.user, s.user.UserID, "Ada")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("user sets their own name once", func() {
		u, err := s.service.SetChosenName(s.ctx, s.user, s.user.UserID, " Ada   Lovelace ")
		s.Require().NoError(err)
		s.Equal("Ada Lovelace", u.ChosenName.String())

		_, err = s.service.SetChosenName(s.ctx, s.user, s.user.UserID, "Augusta Ada King")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("users cannot set someone else's name", func() {
		_, err := s.service.SetChosenName(s.ctx, s.user, s.admin.UserID, "Some One")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("administrators may overwrite", func() {
		u, err := s.service.SetChosenName(s.ctx, s.admin, s.user.UserID, "Augusta Ada King")
		s.Require().NoError(err)
		s.Equal("Augusta Ada King", u.ChosenName.String())
	})

	s.Run("unknown target is not found", func() {
		_, err := s.service.SetChosenName(s.ctx, s.admin, id.UserID(uuid.New()), "No Body")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, audit.Event) error {
	return errors.New("audit store unavailable")
}

func (s *UserServiceSuite) TestAuditFailureRollsBackWrites() {
	failing := New(s.store, Config{RequireFullName: true}, WithAuditPublisher(failingPublisher{}))

	s.Run("a chosen name is not kept", func() {
		_, err := failing.SetChosenName(s.ctx, s.user, s.user.UserID, "Ada Lovelace")
		s.Require().Error(err)

		u, err := s.service.Get(s.ctx, s.user.UserID)
		s.Require().NoError(err)
		s.False(u.HasChosenName())

		// The write-once rule still lets the user set it.
		_, err = s.service.SetChosenName(s.ctx, s.user, s.user.UserID, "Ada Lovelace")
		s.Require().NoError(err)
	})

	s.Run("a first-seen user is not created", func() {
		newcomer := id.Actor{UserID: id.UserID(uuid.New()), Username: "grace", Roles: id.RoleSet{id.RoleBase}}
		_, err := failing.EnsureUser(s.ctx, newcomer)
		s.Require().Error(err)

		_, err = s.service.Get(s.ctx, newcomer.UserID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.service.FindByUsername(s.ctx, "grace")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
