package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/legacybridge/client"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/legacybridge/config"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/legacybridge/watcher"
)

// App runs the legacy bridge: a dropzone watcher feeding the orders API.
// Unlike the other services it serves no HTTP and talks to no broker; its
// only output is order submissions.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	watcher *watcher.Watcher
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	ordersClient := client.NewOrdersClient(cfg.OrdersURL, cfg.AuthUsername, cfg.AuthPassword, logger)
	w := watcher.New(cfg.DropzonePath, cfg.PollInterval, ordersClient, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		watcher: w,
	}
}

// Run blocks on the dropzone watcher until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	err := a.watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("shutdown signal received")
		return nil
	}
	return err
}
