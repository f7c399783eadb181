package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/event"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/repository"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
)

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo     repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateOrderItemInput holds the parameters for an order line item.
type CreateOrderItemInput struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

// CreateOrderInput holds the parameters for creating an order.
type CreateOrderInput struct {
	CustomerID  string
	Items       []CreateOrderItemInput
	TotalAmount float64
}

// CreateOrder persists a new order in CREATED status and publishes the
// order.created event that starts the saga. Persisting comes first: an order
// whose event fails to publish stays CREATED and is visible to operators,
// whereas an event for an unsaved order could never be resolved.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if input.CustomerID == "" {
		return nil, apperrors.InvalidInput("customer_id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if input.TotalAmount <= 0 {
		return nil, apperrors.InvalidInput("total_amount must be positive")
	}

	now := time.Now().UTC()
	items := make([]domain.Item, len(input.Items))
	for i, itemInput := range input.Items {
		if itemInput.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %q quantity must be at least 1", itemInput.Name))
		}
		items[i] = domain.Item{
			Name:     itemInput.Name,
			Price:    itemInput.Price,
			Quantity: itemInput.Quantity,
		}
	}

	order := &domain.Order{
		ID:            uuid.New().String(),
		CustomerID:    input.CustomerID,
		CorrelationID: uuid.New().String(),
		Status:        domain.StatusCreated,
		Items:         items,
		TotalAmount:   input.TotalAmount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("correlation_id", order.CorrelationID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("customer_id", order.CustomerID),
		slog.String("correlation_id", order.CorrelationID),
		slog.Float64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetOrder retrieves an order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// ListOrders returns the most recent orders.
func (s *OrderService) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	orders, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ResolveOrder applies a saga outcome to the order identified by the
// correlation ID. An unknown correlation ID or an already-terminal order is a
// no-op: redeliveries and late events must not disturb settled state.
func (s *OrderService) ResolveOrder(ctx context.Context, correlationID, status, reason string) error {
	if !domain.IsValidStatus(status) || !domain.IsTerminal(status) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid terminal status %q", status))
	}

	updated, err := s.repo.ResolveByCorrelationID(ctx, correlationID, status, reason)
	if err != nil {
		return fmt.Errorf("resolve order: %w", err)
	}

	if !updated {
		s.logger.InfoContext(ctx, "saga outcome ignored, order unknown or already resolved",
			slog.String("correlation_id", correlationID),
			slog.String("status", status),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "order resolved",
		slog.String("correlation_id", correlationID),
		slog.String("status", status),
		slog.String("reason", reason),
	)

	return nil
}
