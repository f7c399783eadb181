package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/stream"
)

// StreamHandler serves the live saga event feed over Server-Sent Events.
type StreamHandler struct {
	hub    *stream.Hub
	logger *slog.Logger
}

// NewStreamHandler creates a new SSE stream handler.
func NewStreamHandler(hub *stream.Hub, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: logger,
	}
}

// Stream handles GET /stream. Each broadcast event is written as one SSE
// data frame; the connection stays open until the client disconnects.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	h.logger.InfoContext(r.Context(), "stream subscriber connected",
		slog.String("remote_addr", r.RemoteAddr),
	)

	for {
		select {
		case <-r.Context().Done():
			h.logger.InfoContext(r.Context(), "stream subscriber disconnected",
				slog.String("remote_addr", r.RemoteAddr),
			)
			return
		case payload, open := <-events:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
