package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/sparkboard/internal/application"
)

type userService interface {
	GetProfile(ctx context.Context, userID string) (application.Profile, error)
	GetOwnProfile(ctx context.Context, principal application.Principal) (application.Profile, error)
	UpdateOwnProfile(ctx context.Context, params application.UpdateProfileParams) (application.User, error)
	ListStudents(ctx context.Context) ([]application.User, error)
}

type UserHandler struct {
	service   userService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, validator: newRequestValidator(), responder: newResponder(base), logger: base}
}

// List handles GET /users, the public student directory.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListStudents(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTOs(users))
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.service.GetOwnProfile(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

// UpdateMe handles PATCH /me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.UpdateOwnProfile(r.Context(), application.UpdateProfileParams{
		Principal: principal,
		Name:      req.Name,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type updateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url"`
}

type userDTO struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
}

type profileDTO struct {
	userDTO
	Badges []awardedBadgeDTO `json:"badges"`
}

type awardedBadgeDTO struct {
	badgeDTO
	AwardID   string `json:"award_id"`
	AwardedAt string `json:"awarded_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
		CreatedAt: formatTimestamp(user.CreatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return out
}

func toProfileDTO(profile application.Profile) profileDTO {
	badges := make([]awardedBadgeDTO, 0, len(profile.Badges))
	for _, b := range profile.Badges {
		badges = append(badges, awardedBadgeDTO{
			badgeDTO:  toBadgeDTO(b.Badge),
			AwardID:   b.AwardID,
			AwardedAt: formatTimestamp(b.AwardedAt),
		})
	}
	return profileDTO{userDTO: toUserDTO(profile.User), Badges: badges}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
