package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/sparkboard/internal/application"
	"github.com/example/sparkboard/internal/booking"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	validation := &application.ValidationError{}
	validation.Add("title", "title is required")

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "description rejection", err: booking.Reject(booking.ReasonInvalidDescription), wantStatus: http.StatusBadRequest, wantMessage: booking.MessageInvalidDescription},
		{name: "wrapped weekday rejection", err: fmt.Errorf("book: %w", booking.Reject(booking.ReasonInvalidWeekday)), wantStatus: http.StatusBadRequest, wantMessage: booking.MessageInvalidWeekday},
		{name: "validation", err: validation, wantStatus: http.StatusBadRequest, wantMessage: messageInvalidBody},
		{name: "unauthenticated", err: application.ErrUnauthenticated, wantStatus: http.StatusUnauthorized, wantMessage: messageUnauthorized},
		{name: "revoked session", err: application.ErrSessionRevoked, wantStatus: http.StatusUnauthorized, wantMessage: messageUnauthorized},
		{name: "bad credentials", err: application.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantMessage: messageInvalidCredentials},
		{name: "forbidden", err: application.ErrForbidden, wantStatus: http.StatusForbidden, wantMessage: messageForbidden},
		{name: "not found", err: application.ErrNotFound, wantStatus: http.StatusNotFound, wantMessage: messageNotFound},
		{name: "duplicate", err: application.ErrAlreadyExists, wantStatus: http.StatusConflict, wantMessage: messageAlreadyExists},
		{name: "store failure", err: errors.New("relation \"spark_moments\" does not exist"), wantStatus: http.StatusInternalServerError, wantMessage: "relation \"spark_moments\" does not exist"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, body := statusFor(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMessage, body.Error)
		})
	}

	_, body := statusFor(validation)
	assert.Equal(t, map[string]string{"title": "title is required"}, body.Fields)
}
