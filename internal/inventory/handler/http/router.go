package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/health"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/middleware"
)

// NewRouter creates a chi router with all inventory service routes registered.
func NewRouter(
	inventoryHandler *InventoryHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("inventory"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/stock", func(r chi.Router) {
		r.Get("/", inventoryHandler.ListStock)
		r.Get("/{name}", inventoryHandler.GetStock)
		r.Put("/{name}", inventoryHandler.SetStock)
	})

	return r
}
