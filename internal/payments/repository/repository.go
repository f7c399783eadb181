package repository

import (
	"context"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/domain"
)

// CaptureRepository defines the persistence operations for payment captures.
type CaptureRepository interface {
	// Save inserts a capture record.
	Save(ctx context.Context, c *domain.Capture) error
	// ListByOrderID returns all capture attempts for one order, oldest first.
	ListByOrderID(ctx context.Context, orderID string) ([]domain.Capture, error)
}
