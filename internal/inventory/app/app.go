package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/config"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/event"
	handler "github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/handler/http"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/migrations"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/repository/postgres"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/service"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/database"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/health"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// App wires together all dependencies and runs the inventory service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	broker     *rabbit.Client
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "inventory")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Broker client with the shared saga topology.
	broker := rabbit.NewClient(rabbit.DefaultConfig(cfg.RabbitURL), logger)

	// Build the dependency graph.
	repo := postgres.NewStockRepository(pool)
	producer := event.NewProducer(broker, logger)
	inventoryService := service.NewInventoryService(repo, producer, logger)

	// order.created consumer behind the idempotency guard.
	consumer := event.NewConsumer(inventoryService, logger)
	ledger := database.NewProcessedMessageStore(pool, cfg.ProcessedTable)
	broker.Subscribe(
		rabbit.ParticipantQueue(event.QueueName, event.Bindings()...),
		rabbit.IdempotentHandler(event.QueueName, ledger, consumer.Handle, logger),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("rabbitmq", func(ctx context.Context) error {
		if !broker.Ready() {
			return rabbit.ErrNotConnected
		}
		return nil
	})

	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)
	router := handler.NewRouter(inventoryHandler, healthHandler, logger)

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
		pool:       pool,
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

// Shutdown gracefully stops the HTTP server and closes the database pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
