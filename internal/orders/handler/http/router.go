package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/auth"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/health"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/middleware"
)

// NewRouter creates a chi router with all orders service routes registered.
// Order creation requires a bearer token; reads and login are public.
func NewRouter(
	orderHandler *OrderHandler,
	authHandler *AuthHandler,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
	rateRPS, rateBurst int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("orders"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	r.Post("/auth/login", authHandler.Login)

	validate := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.Username, Role: claims.Role}, nil
	}

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{id}", orderHandler.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rateRPS, rateBurst, logger))
			r.Use(middleware.Auth(validate))
			r.Post("/", orderHandler.CreateOrder)
		})
	})

	return r
}
