package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/legacybridge/app"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/legacybridge/config"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/logger"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger.
	log := logger.New("legacy-bridge", cfg.LogLevel)
	log.Info("starting legacy bridge",
		slog.String("environment", cfg.Environment),
		slog.String("dropzone", cfg.DropzonePath),
	)

	application := app.NewApp(cfg, log)

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the application. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("legacy bridge stopped")
}
