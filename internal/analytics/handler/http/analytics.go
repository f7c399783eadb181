package http

import (
	"log/slog"
	"net/http"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/analytics/metrics"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/httputil"
)

// AnalyticsHandler serves the aggregated saga counters.
type AnalyticsHandler struct {
	store  *metrics.Store
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(store *metrics.Store, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:  store,
		logger: logger,
	}
}

// Snapshot handles GET /analytics
func (h *AnalyticsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.Snapshot(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: snapshot})
}
