package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/sparkboard/internal/changefeed"
)

const (
	eventBuffer       = 16
	keepAliveInterval = 25 * time.Second
)

// EventsHandler streams change feed events as server-sent events.
type EventsHandler struct {
	hub       *changefeed.Hub
	keepAlive time.Duration
	responder responder
	logger    *slog.Logger
}

func NewEventsHandler(hub *changefeed.Hub, logger *slog.Logger) *EventsHandler {
	base := defaultLogger(logger)
	return &EventsHandler{hub: hub, keepAlive: keepAliveInterval, responder: newResponder(base), logger: base}
}

// Stream handles GET /sparks/events. Each event is written as
// "event: <table>.<action>" with the JSON encoded event as data.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.hub.Subscribe(eventBuffer)
	defer sub.Close()

	logger := handlerLogger(r.Context(), h.logger, "EventsHandler", "Stream")
	logger.DebugContext(r.Context(), "subscriber attached", "subscribers", h.hub.Len())

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.DebugContext(r.Context(), "subscriber detached", "dropped", sub.Dropped())
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-sub.C():
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logger.WarnContext(r.Context(), "failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.RoutingKey(), payload)
			flusher.Flush()
		}
	}
}
