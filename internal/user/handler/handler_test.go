package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steward/internal/user/service"
	"steward/internal/user/store"
	id "steward/pkg/domain"
	"steward/pkg/testutil"
)

func TestUserHandlers(t *testing.T) {
	h := New(service.New(store.NewInMemory(), service.Config{RequireFullName: true}),
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	r.Use(h.EnsureUser)
	h.Register(r)

	actor := id.Actor{UserID: id.UserID(uuid.New()), Username: "ada", Roles: id.RoleSet{id.RoleBase}}

	testutil.Given(t, "an authenticated user seen for the first time", func(t *testing.T) {
		testutil.When(t, "they fetch their profile", func(t *testing.T) {
			rr := testutil.DoRequest(r, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/me"), actor))

			testutil.Then(t, "the record exists without a chosen name", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[UserResponse](t, rr)
				assert.Equal(t, "ada", resp.Username)
				assert.Nil(t, resp.ChosenName)
			})
		})

		testutil.When(t, "they submit a single-token name", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPut, "/me/chosen-name", map[string]string{"chosen_name": "Ada"})
			rr := testutil.DoRequest(r, testutil.WithActor(req, actor))

			testutil.Then(t, "it is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
			})
		})

		testutil.When(t, "they submit a full name", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPut, "/me/chosen-name", map[string]string{"chosen_name": "Ada Lovelace"})
			rr := testutil.DoRequest(r, testutil.WithActor(req, actor))

			testutil.Then(t, "it is stored", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[UserResponse](t, rr)
				require.NotNil(t, resp.ChosenName)
				assert.Equal(t, "Ada Lovelace", *resp.ChosenName)
			})
		})

		testutil.When(t, "they try to change it again", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPut, "/me/chosen-name", map[string]string{"chosen_name": "Ada King"})
			rr := testutil.DoRequest(r, testutil.WithActor(req, actor))

			testutil.Then(t, "it conflicts", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
			})
		})
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/me/chosen-name", map[string]string{"name": "Ada Lovelace"})
		rr := testutil.DoRequest(r, testutil.WithActor(req, actor))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("anonymous profile request is unauthorized", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/me"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}
