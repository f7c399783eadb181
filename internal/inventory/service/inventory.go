package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/event"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/repository"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
)

// ReasonInsufficientStock is the reason carried by inventory.failed when the
// reservation cannot be satisfied.
const ReasonInsufficientStock = "insufficient stock"

// ReserveStockInput holds the parameters of one reservation request taken
// from an order.created event.
type ReserveStockInput struct {
	CorrelationID string
	OrderID       string
	Lines         []domain.ReservationLine
	TotalAmount   float64
}

// InventoryService implements the business logic for stock reservation.
type InventoryService struct {
	repo     repository.StockRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo repository.StockRepository, producer *event.Producer, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// ReserveStock attempts the reservation and publishes the outcome event.
// Shortfalls are a business outcome and produce inventory.failed; storage
// faults and publish failures return an error so the message is redelivered.
func (s *InventoryService) ReserveStock(ctx context.Context, input ReserveStockInput) error {
	err := s.repo.Reserve(ctx, input.Lines)
	switch {
	case err == nil:
		if pubErr := s.producer.PublishStockReserved(ctx, input.CorrelationID, input.OrderID, input.TotalAmount); pubErr != nil {
			return fmt.Errorf("publish reservation outcome: %w", pubErr)
		}
		s.logger.InfoContext(ctx, "stock reserved",
			slog.String("order_id", input.OrderID),
			slog.String("correlation_id", input.CorrelationID),
			slog.Int("lines", len(input.Lines)),
		)
		return nil

	case errors.Is(err, domain.ErrInsufficientStock):
		if pubErr := s.producer.PublishStockFailed(ctx, input.CorrelationID, input.OrderID, ReasonInsufficientStock); pubErr != nil {
			return fmt.Errorf("publish reservation outcome: %w", pubErr)
		}
		s.logger.InfoContext(ctx, "stock reservation rejected",
			slog.String("order_id", input.OrderID),
			slog.String("correlation_id", input.CorrelationID),
			slog.String("reason", err.Error()),
		)
		return nil

	default:
		return fmt.Errorf("reserve stock: %w", err)
	}
}

// GetStock retrieves the stock level for one item.
func (s *InventoryService) GetStock(ctx context.Context, name string) (*domain.StockItem, error) {
	item, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get stock by name: %w", err)
	}
	return item, nil
}

// ListStock returns all stock items.
func (s *InventoryService) ListStock(ctx context.Context) ([]domain.StockItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return items, nil
}

// SetStock creates or replaces the stock level for one item.
func (s *InventoryService) SetStock(ctx context.Context, item domain.StockItem) error {
	if item.Name == "" {
		return apperrors.InvalidInput("item name is required")
	}
	if item.Available < 0 {
		return apperrors.InvalidInput("available must not be negative")
	}

	if err := s.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	s.logger.InfoContext(ctx, "stock level set",
		slog.String("name", item.Name),
		slog.Int("available", item.Available),
	)

	return nil
}
