package repository

import (
	"context"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/domain"
)

// StockRepository defines the persistence operations for stock levels.
type StockRepository interface {
	// Reserve atomically decrements the available count for every line. If
	// any line cannot be satisfied the whole reservation rolls back and the
	// error wraps domain.ErrInsufficientStock.
	Reserve(ctx context.Context, lines []domain.ReservationLine) error
	// GetByName retrieves the stock level for one item.
	GetByName(ctx context.Context, name string) (*domain.StockItem, error)
	// Upsert creates or replaces the stock level for one item.
	Upsert(ctx context.Context, item domain.StockItem) error
	// List returns all stock items ordered by name.
	List(ctx context.Context) ([]domain.StockItem, error)
}
