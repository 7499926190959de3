package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"steward/internal/training/models"
	"steward/internal/training/service"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/httputil"
	"steward/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, actor id.Actor, kind models.Kind, completedAt time.Time, certificateRef string) (*service.Status, error)
	StatusAll(ctx context.Context, userID id.UserID) ([]service.Status, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/me/training", h.HandleSubmit)
	r.Get("/me/training", h.HandleList)
}

// SubmitRequest is the body of POST /me/training.
type SubmitRequest struct {
	Kind           string    `json:"kind"`
	CompletedAt    time.Time `json:"completed_at"`
	CertificateRef string    `json:"certificate_ref"`

	parsedKind models.Kind
}

func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.Kind) == "" {
		r.Kind = string(models.KindNHSD)
	}
	kind, err := models.ParseKind(r.Kind)
	if err != nil {
		return err
	}
	r.parsedKind = kind
	if r.CompletedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "completed_at is required")
	}
	if len(r.CertificateRef) > 512 {
		return dErrors.New(dErrors.CodeValidation, "certificate_ref must be at most 512 characters")
	}
	return nil
}

// StatusResponse renders one kind's validity.
type StatusResponse struct {
	Kind        string     `json:"kind"`
	State       string     `json:"state"`
	IsValid     bool       `json:"is_valid"`
	Urgency     string     `json:"urgency"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toResponse(st service.Status) StatusResponse {
	resp := StatusResponse{
		Kind:      string(st.Kind),
		State:     string(st.Validity.State),
		IsValid:   st.Validity.IsValid,
		Urgency:   string(st.Validity.Urgency),
		ExpiresAt: st.Validity.ExpiresAt,
	}
	if st.Record != nil {
		completed := st.Record.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Actor(ctx)
	if actor.IsAnonymous() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	st, err := h.service.Submit(ctx, actor, req.parsedKind, req.CompletedAt, req.CertificateRef)
	if err != nil {
		h.logger.ErrorContext(ctx, "training submission failed",
			"request_id", requestID,
			"user_id", actor.UserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(*st))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	if actor.IsAnonymous() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	all, err := h.service.StatusAll(ctx, actor.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]StatusResponse, 0, len(all))
	for _, st := range all {
		out = append(out, toResponse(st))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"training": out})
}
