package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/sparkboard/internal/application"
)

type analyticsService interface {
	Dashboard(ctx context.Context, principal application.Principal) (application.Dashboard, error)
}

type AnalyticsHandler struct {
	service   analyticsService
	responder responder
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// Dashboard handles GET /admin/analytics.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	dashboard, err := h.service.Dashboard(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDashboardDTO(dashboard))
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type badgeCountDTO struct {
	BadgeID string `json:"badge_id"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
}

type studentCountDTO struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Count  int    `json:"count"`
}

type dashboardDTO struct {
	TotalStudents  int               `json:"total_students"`
	TotalBadges    int               `json:"total_badges"`
	TotalAwards    int               `json:"total_awards"`
	PopularBadges  []badgeCountDTO   `json:"popular_badges"`
	RareBadges     []badgeCountDTO   `json:"rare_badges"`
	TopStudents    []studentCountDTO `json:"top_students"`
	BottomStudents []studentCountDTO `json:"bottom_students"`
	GeneratedAt    string            `json:"generated_at"`
}

func toDashboardDTO(d application.Dashboard) dashboardDTO {
	return dashboardDTO{
		TotalStudents:  d.TotalStudents,
		TotalBadges:    d.TotalBadges,
		TotalAwards:    d.TotalAwards,
		PopularBadges:  toBadgeCountDTOs(d.PopularBadges),
		RareBadges:     toBadgeCountDTOs(d.RareBadges),
		TopStudents:    toStudentCountDTOs(d.TopStudents),
		BottomStudents: toStudentCountDTOs(d.BottomStudents),
		GeneratedAt:    formatTimestamp(d.GeneratedAt),
	}
}

func toBadgeCountDTOs(in []application.BadgeCount) []badgeCountDTO {
	out := make([]badgeCountDTO, 0, len(in))
	for _, c := range in {
		out = append(out, badgeCountDTO{BadgeID: c.BadgeID, Title: c.Title, Count: c.Count})
	}
	return out
}

func toStudentCountDTOs(in []application.StudentCount) []studentCountDTO {
	out := make([]studentCountDTO, 0, len(in))
	for _, c := range in {
		out = append(out, studentCountDTO{UserID: c.UserID, Name: c.Name, Email: c.Email, Count: c.Count})
	}
	return out
}
