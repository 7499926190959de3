package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"steward/internal/user/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/httputil"
	"steward/pkg/requestcontext"
)

type Service interface {
	EnsureUser(ctx context.Context, actor id.Actor) (*models.User, error)
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	SetChosenName(ctx context.Context, actor id.Actor, target id.UserID, raw string) (*models.User, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Put("/me/chosen-name", h.HandleSetOwnChosenName)
	r.Put("/users/{id}/chosen-name", h.HandleSetChosenName)
}

// EnsureUser records the authenticated actor before any handler runs, so
// every downstream lookup by user id finds a row.
func (h *Handler) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor := requestcontext.Actor(ctx)
		if actor.IsAnonymous() {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := h.service.EnsureUser(ctx, actor); err != nil {
			h.logger.ErrorContext(ctx, "failed to ensure user",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", actor.UserID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	ChosenName *string   `json:"chosen_name"`
	Roles      []string  `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Roles:     u.Roles.Strings(),
		CreatedAt: u.CreatedAt,
	}
	if u.HasChosenName() {
		name := u.ChosenName.String()
		resp.ChosenName = &name
	}
	return resp
}

type ChosenNameRequest struct {
	ChosenName string `json:"chosen_name"`
}

func (r *ChosenNameRequest) Validate() error {
	if r.ChosenName == "" {
		return dErrors.New(dErrors.CodeValidation, "chosen_name is required")
	}
	return nil
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor := requestcontext.Actor(r.Context())
	if actor.IsAnonymous() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	u, err := h.service.Get(r.Context(), actor.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) HandleSetOwnChosenName(w http.ResponseWriter, r *http.Request) {
	h.setChosenName(w, r, requestcontext.Actor(r.Context()).UserID)
}

func (h *Handler) HandleSetChosenName(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.setChosenName(w, r, target)
}

func (h *Handler) setChosenName(w http.ResponseWriter, r *http.Request, target id.UserID) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ChosenNameRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	u, err := h.service.SetChosenName(ctx, requestcontext.Actor(ctx), target, req.ChosenName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
