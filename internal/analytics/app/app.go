package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/analytics/config"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/analytics/event"
	handler "github.com/Mary2201/ProyectoFinalIntegraHub/internal/analytics/handler/http"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/analytics/metrics"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/database"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/health"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// App wires together all dependencies and runs the analytics service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	redis      *redis.Client
	broker     *rabbit.Client
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis.
	redisCfg := database.DefaultRedisConfig()
	redisCfg.Host = cfg.RedisHost
	redisCfg.Port = cfg.RedisPort
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB

	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))

	// Broker client with the shared saga topology.
	broker := rabbit.NewClient(rabbit.DefaultConfig(cfg.RabbitURL), logger)

	store := metrics.NewStore(redisClient)

	// Observer queue: server-named, exclusive, auto-ack, bound to every
	// routing key. Counters are best effort.
	consumer := event.NewConsumer(store, logger)
	broker.Subscribe(rabbit.ObserverQueue(), consumer.Handle)

	analyticsHandler := handler.NewAnalyticsHandler(store, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("rabbitmq", func(ctx context.Context) error {
		if !broker.Ready() {
			return rabbit.ErrNotConnected
		}
		return nil
	})

	router := handler.NewRouter(analyticsHandler, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      redisClient,
		broker:     broker,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and the broker client, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := a.broker.Run(ctx); err != nil {
			errCh <- fmt.Errorf("broker client: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: HTTP first so in-flight requests
// drain, then Redis. The broker client stops with the context.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
