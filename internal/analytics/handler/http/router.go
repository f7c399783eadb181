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

// NewRouter creates a chi router with all analytics service routes registered.
func NewRouter(
	analyticsHandler *AnalyticsHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. CORS first so browser dashboards on other origins
	// can poll the snapshot endpoint.
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("analytics"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Counters move slowly enough that a short client-side cache is fine.
	r.With(middleware.CacheControl(5)).Get("/analytics", analyticsHandler.Snapshot)

	return r
}
