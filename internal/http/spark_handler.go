package http

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/sparkboard/internal/application"
	"github.com/example/sparkboard/internal/booking"
)

type sparkService interface {
	BookSpark(ctx context.Context, params application.BookSparkParams) (application.SparkMoment, error)
	DeleteSpark(ctx context.Context, principal application.Principal, id string) error
	ListSparks(ctx context.Context) iter.Seq2[application.SparkListing, error]
	Calendar(ctx context.Context, params application.CalendarParams) ([]application.CalendarDay, error)
}

// SparkHandler serves the Spark Moments booking endpoints.
type SparkHandler struct {
	service   sparkService
	responder responder
	logger    *slog.Logger
}

func NewSparkHandler(service sparkService, logger *slog.Logger) *SparkHandler {
	base := defaultLogger(logger)
	return &SparkHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SparkHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SparkHandler", operation, attrs...)
}

// List handles GET /sparks.
func (h *SparkHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := application.CollectSparks(h.service.ListSparks(r.Context()))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]sparkDTO, 0, len(listings))
	for _, listing := range listings {
		dto := toSparkDTO(listing.SparkMoment)
		dto.User = &sparkOwnerDTO{Name: listing.Owner.Name, AvatarURL: listing.Owner.AvatarURL}
		out = append(out, dto)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Create handles POST /sparks.
func (h *SparkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookSparkRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageInvalidBody)
		return
	}

	// Unparsable dates share the generic rejection message.
	day, err := booking.ParseDay(strings.TrimSpace(req.Date))
	if err != nil {
		h.log(r.Context(), "Create", "date", req.Date).InfoContext(r.Context(), "unparsable booking date")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, booking.MessageInvalidDescription)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	moment, err := h.service.BookSpark(r.Context(), application.BookSparkParams{
		Principal:   principal,
		Date:        day,
		Description: req.Description,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSparkDTO(moment))
}

// Delete handles DELETE /sparks?id=<id>.
func (h *SparkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSpark(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

// Calendar handles GET /sparks/calendar?from=YYYY-MM-DD&weeks=N.
func (h *SparkHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var params application.CalendarParams

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		day, err := booking.ParseDay(raw)
		if err != nil {
			vErr := &application.ValidationError{}
			vErr.Add("from", "from must be a YYYY-MM-DD date")
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}
		params.From = day
	}
	if raw := strings.TrimSpace(query.Get("weeks")); raw != "" {
		weeks, err := strconv.Atoi(raw)
		if err != nil || weeks <= 0 {
			vErr := &application.ValidationError{}
			vErr.Add("weeks", "weeks must be a positive integer")
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}
		params.Weeks = weeks
	}

	days, err := h.service.Calendar(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]calendarDayDTO, 0, len(days))
	for _, d := range days {
		out = append(out, calendarDayDTO{
			Date:      d.Date.String(),
			Weekday:   d.Weekday,
			Booked:    d.Booked,
			Remaining: d.Remaining,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

type bookSparkRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

type sparkOwnerDTO struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

type sparkDTO struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	UserID      string         `json:"user_id"`
	CreatedAt   string         `json:"created_at"`
	User        *sparkOwnerDTO `json:"user,omitempty"`
}

type calendarDayDTO struct {
	Date      string `json:"date"`
	Weekday   int    `json:"weekday"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
}

func toSparkDTO(m application.SparkMoment) sparkDTO {
	return sparkDTO{
		ID:          m.ID,
		Date:        m.Date.String(),
		Description: m.Description,
		UserID:      m.UserID,
		CreatedAt:   formatTimestamp(m.CreatedAt),
	}
}
