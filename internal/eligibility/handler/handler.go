package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"steward/internal/eligibility/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/httputil"
	"steward/pkg/requestcontext"
)

type Service interface {
	Evaluate(ctx context.Context, subject id.UserID) (models.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me/onboarding", h.HandleOnboarding)
}

type StepResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type OnboardingResponse struct {
	IsApprovedResearcher bool           `json:"is_approved_researcher"`
	CurrentStep          *string        `json:"current_step"`
	Steps                []StepResponse `json:"steps"`
}

func (h *Handler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	if actor.IsAnonymous() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	result, err := h.service.Evaluate(ctx, actor.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "eligibility evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", actor.UserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := OnboardingResponse{
		IsApprovedResearcher: result.IsApprovedResearcher,
		Steps:                make([]StepResponse, 0, len(result.Steps)),
	}
	for _, s := range result.Steps {
		resp.Steps = append(resp.Steps, StepResponse{ID: string(s.ID), State: string(s.State)})
	}
	if step, ok := result.CurrentStep(); ok {
		current := string(step)
		resp.CurrentStep = &current
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
