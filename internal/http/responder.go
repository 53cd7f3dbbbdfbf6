package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/sparkboard/internal/application"
	"github.com/example/sparkboard/internal/booking"
)

const (
	messageInvalidBody        = "Dados inválidos"
	messageUnauthorized       = "Unauthorized"
	messageForbidden          = "Forbidden"
	messageNotFound           = "Not found"
	messageAlreadyExists      = "Already exists"
	messageInvalidCredentials = "E-mail ou senha inválidos"
	messageInternal           = "Internal server error"
)

var errBadRequestBody = errors.New(messageInvalidBody)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	r.writeJSON(ctx, w, status, errorResponse{Error: message})
}

// handleServiceError maps application errors to a status and the {"error"} body.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", application.ErrorKind(err))
	}
	r.writeJSON(ctx, w, status, body)
}

func statusFor(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: messageInternal}
	}

	var rejection *booking.RejectionError
	if errors.As(err, &rejection) {
		return http.StatusBadRequest, errorResponse{Error: rejection.Message}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorResponse{Error: messageInvalidBody, Fields: vErr.FieldErrors}
	}

	switch {
	case errors.Is(err, application.ErrUnauthenticated),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized, errorResponse{Error: messageUnauthorized}
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: messageInvalidCredentials}
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: messageForbidden}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: messageNotFound}
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{Error: messageAlreadyExists}
	}

	// Persistence failures surface the raw store message.
	return http.StatusInternalServerError, errorResponse{Error: err.Error()}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}
