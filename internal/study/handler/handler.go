package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"steward/internal/study/models"
	"steward/internal/study/risk"
	"steward/internal/study/service"
	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
	"steward/pkg/platform/httputil"
	"steward/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, actor id.Actor, content models.Content) (*service.View, error)
	Get(ctx context.Context, actor id.Actor, studyID id.StudyID) (*service.View, error)
	List(ctx context.Context, actor id.Actor, in service.ListInput) ([]service.View, error)
	EditContent(ctx context.Context, actor id.Actor, studyID id.StudyID, content models.Content, expected *models.Status) (*service.View, error)
	MarkReadyForReview(ctx context.Context, actor id.Actor, studyID id.StudyID, expected *models.Status) (*service.View, error)
	Approve(ctx context.Context, actor id.Actor, studyID id.StudyID, expected *models.Status) (*service.View, error)
	RequestChanges(ctx context.Context, actor id.Actor, studyID id.StudyID, feedback string, expected *models.Status) (*service.View, error)
	AmendFeedback(ctx context.Context, actor id.Actor, studyID id.StudyID, feedback string, expected *models.Status) (*service.View, error)
	RegisterAsset(ctx context.Context, actor id.Actor, studyID id.StudyID, name string) (*models.Asset, error)
	Risk(ctx context.Context, actor id.Actor, studyID id.StudyID) (risk.Assessment, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the study routes. Transitions take an optional
// expected_status query parameter; a stale value answers 409.
func (h *Handler) Register(r chi.Router) {
	r.Post("/studies", h.HandleCreate)
	r.Get("/studies", h.HandleList)
	r.Get("/studies/{id}", h.HandleGet)
	r.Patch("/studies/{id}", h.HandleEdit)
	r.Post("/studies/{id}/ready", h.HandleMarkReady)
	r.Post("/studies/{id}/approve", h.HandleApprove)
	r.Post("/studies/{id}/request-changes", h.HandleRequestChanges)
	r.Put("/studies/{id}/feedback", h.HandleAmendFeedback)
	r.Post("/studies/{id}/assets", h.HandleRegisterAsset)
	r.Get("/studies/{id}/risk", h.HandleRisk)
}

type StudyResponse struct {
	ID                         string              `json:"id"`
	Title                      string              `json:"title"`
	Description                string              `json:"description"`
	OwnerID                    string              `json:"owner_id"`
	AdminUsernames             []string            `json:"admin_usernames"`
	DataControllerOrganisation string              `json:"data_controller_organisation"`
	Declarations               models.Declarations `json:"declarations"`
	ApprovalStatus             string              `json:"approval_status"`
	Feedback                   *string             `json:"feedback,omitempty"`
	Risk                       risk.Assessment     `json:"risk"`
	CreatedAt                  time.Time           `json:"created_at"`
	UpdatedAt                  time.Time           `json:"updated_at"`
}

func toStudyResponse(v *service.View) StudyResponse {
	st := v.Study
	admins := st.AdminUsernames
	if admins == nil {
		admins = []string{}
	}
	return StudyResponse{
		ID:                         st.ID.String(),
		Title:                      st.Title,
		Description:                st.Description,
		OwnerID:                    st.OwnerID.String(),
		AdminUsernames:             admins,
		DataControllerOrganisation: st.DataControllerOrganisation,
		Declarations:               st.Declarations,
		ApprovalStatus:             string(st.ApprovalStatus),
		Feedback:                   st.Feedback,
		Risk:                       v.Risk,
		CreatedAt:                  st.CreatedAt,
		UpdatedAt:                  st.UpdatedAt,
	}
}

type AssetResponse struct {
	ID        string    `json:"id"`
	StudyID   string    `json:"study_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentRequest is the body of POST /studies and PATCH /studies/{id}.
type ContentRequest struct {
	Title                      string              `json:"title"`
	Description                string              `json:"description"`
	AdminUsernames             []string            `json:"admin_usernames"`
	DataControllerOrganisation string              `json:"data_controller_organisation"`
	Declarations               models.Declarations `json:"declarations"`
}

func (r *ContentRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	return nil
}

func (r *ContentRequest) content() models.Content {
	return models.Content{
		Title:                      r.Title,
		Description:                r.Description,
		AdminUsernames:             r.AdminUsernames,
		DataControllerOrganisation: r.DataControllerOrganisation,
		Declarations:               r.Declarations,
	}
}

// FeedbackRequest carries reviewer feedback. Empty feedback is allowed when
// amending and clears it.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (r *FeedbackRequest) Validate() error {
	if len(r.Feedback) > 16*1024 {
		return dErrors.New(dErrors.CodeValidation, "feedback is too long")
	}
	return nil
}

type AssetRequest struct {
	Name string `json:"name"`
}

func (r *AssetRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ContentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	v, err := h.service.Create(ctx, requestcontext.Actor(ctx), req.content())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toStudyResponse(v))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, err := parseListInput(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.service.List(ctx, requestcontext.Actor(ctx), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]StudyResponse, 0, len(views))
	for i := range views {
		out = append(out, toStudyResponse(&views[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"studies": out})
}

func parseListInput(r *http.Request) (service.ListInput, error) {
	var in service.ListInput
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return in, err
		}
		in.Status = &st
	}
	var err error
	if in.Limit, err = intParam(q.Get("limit")); err != nil {
		return in, err
	}
	if in.Offset, err = intParam(q.Get("offset")); err != nil {
		return in, err
	}
	return in, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit and offset must be non-negative integers")
	}
	return n, nil
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, err := id.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Get(ctx, requestcontext.Actor(ctx), studyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudyResponse(v))
}

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, expected, err := transitionParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ContentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	v, err := h.service.EditContent(ctx, requestcontext.Actor(ctx), studyID, req.content(), expected)
	h.writeTransition(w, r, studyID, "edit-content", v, err)
}

func (h *Handler) HandleMarkReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, expected, err := transitionParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.MarkReadyForReview(ctx, requestcontext.Actor(ctx), studyID, expected)
	h.writeTransition(w, r, studyID, "mark-ready-for-review", v, err)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, expected, err := transitionParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Approve(ctx, requestcontext.Actor(ctx), studyID, expected)
	h.writeTransition(w, r, studyID, "approve", v, err)
}

func (h *Handler) HandleRequestChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, expected, err := transitionParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[FeedbackRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	v, err := h.service.RequestChanges(ctx, requestcontext.Actor(ctx), studyID, req.Feedback, expected)
	h.writeTransition(w, r, studyID, "request-changes", v, err)
}

func (h *Handler) HandleAmendFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, expected, err := transitionParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[FeedbackRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	v, err := h.service.AmendFeedback(ctx, requestcontext.Actor(ctx), studyID, req.Feedback, expected)
	h.writeTransition(w, r, studyID, "amend-feedback", v, err)
}

func (h *Handler) HandleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, err := id.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssetRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.RegisterAsset(ctx, requestcontext.Actor(ctx), studyID, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, AssetResponse{
		ID:        a.ID.String(),
		StudyID:   a.StudyID.String(),
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	})
}

func (h *Handler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studyID, err := id.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Risk(ctx, requestcontext.Actor(ctx), studyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func transitionParams(r *http.Request) (id.StudyID, *models.Status, error) {
	studyID, err := id.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		return id.StudyID{}, nil, err
	}
	raw := r.URL.Query().Get("expected_status")
	if raw == "" {
		return studyID, nil, nil
	}
	st, err := models.ParseStatus(raw)
	if err != nil {
		return id.StudyID{}, nil, err
	}
	return studyID, &st, nil
}

func (h *Handler) writeTransition(w http.ResponseWriter, r *http.Request, studyID id.StudyID, event string, v *service.View, err error) {
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(r.Context(), "study transition failed",
				"request_id", requestcontext.RequestID(r.Context()),
				"study_id", studyID,
				"event", event,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudyResponse(v))
}
