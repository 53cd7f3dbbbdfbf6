package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sparkboard/internal/application"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestHandlerLoggerAttachesPrincipal(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = ContextWithPrincipal(ctx, application.Principal{UserID: "user-1", IsAdmin: true})

	handlerLogger(ctx, nil, "SparkHandler", "Create", "date", "2024-06-04").Info("booked")

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "SparkHandler", entry["handler"])
	assert.Equal(t, "Create", entry["operation"])
	assert.Equal(t, "user-1", entry["principal_id"])
	assert.Equal(t, true, entry["admin"])
	assert.Equal(t, "2024-06-04", entry["date"])
}

func TestHandlerLoggerAnonymousUsesFallback(t *testing.T) {
	var buf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&buf, nil))

	handlerLogger(context.Background(), fallback, "SparkHandler", "", "count", 2).Info("listed")

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "SparkHandler", entry["handler"])
	assert.NotContains(t, entry, "operation")
	assert.NotContains(t, entry, "principal_id")
	assert.NotContains(t, entry, "admin")
	assert.EqualValues(t, 2, entry["count"])
}
