package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/sparkboard/internal/application"
)

type badgeService interface {
	CreateBadge(ctx context.Context, params application.CreateBadgeParams) (application.Badge, error)
	UpdateBadge(ctx context.Context, params application.UpdateBadgeParams) (application.Badge, error)
	DeleteBadge(ctx context.Context, principal application.Principal, badgeID string) error
	ListBadges(ctx context.Context) ([]application.Badge, error)
}

type awardService interface {
	AssignBadge(ctx context.Context, params application.AwardParams) (application.Award, error)
	RevokeBadge(ctx context.Context, params application.AwardParams) error
}

// BadgeHandler serves the badge gallery and the administrator grant endpoints.
type BadgeHandler struct {
	badges    badgeService
	awards    awardService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

func NewBadgeHandler(badges badgeService, awards awardService, logger *slog.Logger) *BadgeHandler {
	base := defaultLogger(logger)
	return &BadgeHandler{badges: badges, awards: awards, validator: newRequestValidator(), responder: newResponder(base), logger: base}
}

// List handles GET /badges.
func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badges.ListBadges(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]badgeDTO, 0, len(badges))
	for _, b := range badges {
		out = append(out, toBadgeDTO(b))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Create handles POST /badges.
func (h *BadgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	badge, err := h.badges.CreateBadge(r.Context(), application.CreateBadgeParams{
		Principal: principal,
		Input: application.BadgeInput{
			Title:       req.Title,
			Description: req.Description,
			ImageURL:    req.ImageURL,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBadgeDTO(badge))
}

// Update handles PATCH /badges/{id}.
func (h *BadgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req badgePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	badge, err := h.badges.UpdateBadge(r.Context(), application.UpdateBadgeParams{
		Principal:   principal,
		BadgeID:     r.PathValue("id"),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBadgeDTO(badge))
}

// Delete handles DELETE /badges/{id}.
func (h *BadgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.badges.DeleteBadge(r.Context(), principal, r.PathValue("id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

// Assign handles POST /assign.
func (h *BadgeHandler) Assign(w http.ResponseWriter, r *http.Request) {
	params, ok := h.awardParams(w, r)
	if !ok {
		return
	}
	award, err := h.awards.AssignBadge(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, awardDTO{
		ID:        award.ID,
		UserID:    award.UserID,
		BadgeID:   award.BadgeID,
		CreatedAt: formatTimestamp(award.CreatedAt),
	})
}

// Revoke handles POST /revoke.
func (h *BadgeHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	params, ok := h.awardParams(w, r)
	if !ok {
		return
	}
	if err := h.awards.RevokeBadge(r.Context(), params); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

func (h *BadgeHandler) awardParams(w http.ResponseWriter, r *http.Request) (application.AwardParams, bool) {
	var req awardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageInvalidBody)
		return application.AwardParams{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.AwardParams{}, false
	}
	principal, _ := PrincipalFromContext(r.Context())
	return application.AwardParams{Principal: principal, UserID: req.UserID, BadgeID: req.BadgeID}, true
}

type badgeRequest struct {
	Title       string `json:"title" validate:"notblank,max=80"`
	Description string `json:"description" validate:"max=500"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

type badgePatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type awardRequest struct {
	UserID  string `json:"user_id" validate:"notblank"`
	BadgeID string `json:"badge_id" validate:"notblank"`
}

type badgeDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	CreatedAt   string `json:"created_at"`
}

type awardDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	BadgeID   string `json:"badge_id"`
	CreatedAt string `json:"created_at"`
}

func toBadgeDTO(b application.Badge) badgeDTO {
	return badgeDTO{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		ImageURL:    b.ImageURL,
		CreatedAt:   formatTimestamp(b.CreatedAt),
	}
}
