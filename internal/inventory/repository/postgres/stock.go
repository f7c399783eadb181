package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/database"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
)

// StockRepository implements repository.StockRepository using PostgreSQL.
type StockRepository struct {
	pool database.DBTX
}

// NewStockRepository creates a new PostgreSQL-backed stock repository.
func NewStockRepository(pool database.DBTX) *StockRepository {
	return &StockRepository{pool: pool}
}

// Reserve decrements the available count for every line inside a single
// transaction. The availability predicate in the UPDATE makes the decrement
// atomic: concurrent reservations cannot drive stock negative.
func (r *StockRepository) Reserve(ctx context.Context, lines []domain.ReservationLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE stock_items
		SET available = available - $1
		WHERE name = $2 AND available >= $1`

	for _, line := range lines {
		ct, err := tx.Exec(ctx, query, line.Quantity, line.Name)
		if err != nil {
			return fmt.Errorf("reserve stock for %q: %w", line.Name, err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("item %q: %w", line.Name, domain.ErrInsufficientStock)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByName retrieves the stock level for one item.
func (r *StockRepository) GetByName(ctx context.Context, name string) (*domain.StockItem, error) {
	query := `SELECT name, available FROM stock_items WHERE name = $1`

	var item domain.StockItem
	err := r.pool.QueryRow(ctx, query, name).Scan(&item.Name, &item.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan stock item: %w", err)
	}

	return &item, nil
}

// Upsert creates or replaces the stock level for one item.
func (r *StockRepository) Upsert(ctx context.Context, item domain.StockItem) error {
	query := `
		INSERT INTO stock_items (name, available)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET available = EXCLUDED.available`

	if _, err := r.pool.Exec(ctx, query, item.Name, item.Available); err != nil {
		return fmt.Errorf("upsert stock item: %w", err)
	}

	return nil
}

// List returns all stock items ordered by name.
func (r *StockRepository) List(ctx context.Context) ([]domain.StockItem, error) {
	query := `SELECT name, available FROM stock_items ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.StockItem, 0)
	for rows.Next() {
		var item domain.StockItem
		if err := rows.Scan(&item.Name, &item.Available); err != nil {
			return nil, fmt.Errorf("scan stock item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock item rows: %w", err)
	}

	return items, nil
}
