package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steward/internal/eligibility/models"
	id "steward/pkg/domain"
	"steward/pkg/testutil"
)

type stubService struct {
	result models.Result
	err    error
}

func (s stubService) Evaluate(context.Context, id.UserID) (models.Result, error) {
	return s.result, s.err
}

func router(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)
	return r
}

func TestOnboarding(t *testing.T) {
	actor := id.Actor{UserID: id.UserID(uuid.New()), Username: "ada"}

	t.Run("renders the checklist", func(t *testing.T) {
		r := router(stubService{result: models.Evaluate(models.Facts{ChosenName: "Ada Lovelace"})})
		rr := testutil.DoRequest(r, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/me/onboarding"), actor))
		testutil.AssertStatusOK(t, rr)

		resp := testutil.UnmarshalResponse[OnboardingResponse](t, rr)
		assert.False(t, resp.IsApprovedResearcher)
		require.NotNil(t, resp.CurrentStep)
		assert.Equal(t, "agreement", *resp.CurrentStep)
		assert.Equal(t, []StepResponse{
			{ID: "chosen-name", State: "completed"},
			{ID: "agreement", State: "current"},
			{ID: "training", State: "pending"},
		}, resp.Steps)
	})

	t.Run("internal failures are opaque", func(t *testing.T) {
		r := router(stubService{err: errors.New("database gone")})
		rr := testutil.DoRequest(r, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/me/onboarding"), actor))
		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		assert.NotContains(t, rr.Body.String(), "database gone")
	})

	t.Run("anonymous", func(t *testing.T) {
		rr := testutil.DoRequest(router(stubService{}), testutil.NewRequest(t, http.MethodGet, "/me/onboarding"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}
