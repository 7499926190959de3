package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"steward/internal/agreement/models"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/httputil"
	"steward/pkg/requestcontext"
)

type Service interface {
	Publish(ctx context.Context, actor id.Actor, t id.AgreementType, text string) (*models.Agreement, error)
	Current(ctx context.Context, t id.AgreementType) (*models.Agreement, error)
	Confirm(ctx context.Context, actor id.Actor, agreementID id.AgreementID) (*models.Confirmation, error)
	ListConfirmations(ctx context.Context, userID id.UserID) ([]models.Confirmation, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/agreements/{type}/current", h.HandleCurrent)
	r.Post("/agreements/{type}", h.HandlePublish)
	r.Post("/agreements/{id}/confirm", h.HandleConfirm)
	r.Get("/me/agreements", h.HandleListConfirmations)
}

type AgreementResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Version     int       `json:"version"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

func toAgreementResponse(a *models.Agreement) AgreementResponse {
	return AgreementResponse{
		ID:          a.ID.String(),
		Type:        string(a.Type),
		Version:     a.Version,
		Text:        a.Text,
		PublishedAt: a.PublishedAt,
	}
}

type ConfirmationResponse struct {
	AgreementID   string    `json:"agreement_id"`
	AgreementType string    `json:"agreement_type"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// PublishRequest is the body of POST /agreements/{type}.
type PublishRequest struct {
	Text string `json:"text"`
}

func (r *PublishRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	return nil
}

func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	t, err := id.ParseAgreementType(chi.URLParam(r, "type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Current(r.Context(), t)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAgreementResponse(a))
}

func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Actor(ctx)

	t, err := id.ParseAgreementType(chi.URLParam(r, "type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := h.service.Publish(ctx, actor, t, req.Text)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAgreementResponse(a))
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agreementID, err := id.ParseAgreementID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Confirm(ctx, requestcontext.Actor(ctx), agreementID)
	if err != nil {
		h.logger.WarnContext(ctx, "agreement confirmation failed",
			"request_id", requestcontext.RequestID(ctx),
			"agreement_id", agreementID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ConfirmationResponse{
		AgreementID:   c.AgreementID.String(),
		AgreementType: string(c.AgreementType),
		ConfirmedAt:   c.ConfirmedAt,
	})
}

func (h *Handler) HandleListConfirmations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	if actor.IsAnonymous() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	list, err := h.service.ListConfirmations(ctx, actor.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]ConfirmationResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ConfirmationResponse{
			AgreementID:   c.AgreementID.String(),
			AgreementType: string(c.AgreementType),
			ConfirmedAt:   c.ConfirmedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"confirmations": out})
}
