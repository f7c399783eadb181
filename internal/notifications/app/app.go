package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/config"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/event"
	handler "github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/handler/http"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/stream"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/health"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// App wires together all dependencies and runs the notifications service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	broker     *rabbit.Client
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Broker client with the shared saga topology.
	broker := rabbit.NewClient(rabbit.DefaultConfig(cfg.RabbitURL), logger)

	hub := stream.NewHub(logger)

	// Observer queue: server-named, exclusive, auto-ack, bound to every
	// routing key. Missing a notification never stalls the saga.
	consumer := event.NewConsumer(hub, logger)
	broker.Subscribe(rabbit.ObserverQueue(), consumer.Handle)

	streamHandler := handler.NewStreamHandler(hub, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("rabbitmq", func(ctx context.Context) error {
		if !broker.Ready() {
			return rabbit.ErrNotConnected
		}
		return nil
	})

	router := handler.NewRouter(streamHandler, healthHandler, logger)

	// WriteTimeout stays zero so open stream connections are not cut off.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
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

// Shutdown gracefully stops the HTTP server. The broker client stops with
// the context.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
