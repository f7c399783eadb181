package repository

import (
	"context"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, o *domain.Order) error
	// GetByID retrieves an order by its ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns the most recent orders, newest first.
	List(ctx context.Context, limit int) ([]domain.Order, error)
	// ResolveByCorrelationID moves the order identified by the correlation ID
	// from CREATED to the given terminal status. It returns false when no row
	// changed, either because the correlation ID is unknown or the order is
	// already terminal.
	ResolveByCorrelationID(ctx context.Context, correlationID, status, reason string) (bool, error)
}
