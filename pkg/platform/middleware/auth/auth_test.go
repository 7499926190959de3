package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "steward/pkg/domain"
	"steward/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s stubValidator) ValidateToken(string) (*Claims, error) {
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New()

	serve := func(v TokenValidator, header string) (*httptest.ResponseRecorder, id.Actor) {
		var seen id.Actor
		h := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.Actor(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w, seen
	}

	t.Run("valid token injects actor", func(t *testing.T) {
		v := stubValidator{claims: &Claims{UserID: userID.String(), Username: "ada", Roles: []string{"ig-ops-staff"}}}
		w, actor := serve(v, "Bearer abc")
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, id.UserID(userID), actor.UserID)
		assert.True(t, actor.Roles.IsReviewer())
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		w, _ := serve(stubValidator{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		w, _ := serve(stubValidator{err: errors.New("bad signature")}, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		v := stubValidator{claims: &Claims{UserID: userID.String(), Roles: []string{"root"}}}
		w, _ := serve(v, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
