package postgres

import (
	"context"
	"fmt"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/database"
)

// CaptureRepository implements repository.CaptureRepository using PostgreSQL.
type CaptureRepository struct {
	pool database.DBTX
}

// NewCaptureRepository creates a new PostgreSQL-backed capture repository.
func NewCaptureRepository(pool database.DBTX) *CaptureRepository {
	return &CaptureRepository{pool: pool}
}

// Save inserts a capture record.
func (r *CaptureRepository) Save(ctx context.Context, c *domain.Capture) error {
	query := `
		INSERT INTO payment_captures (id, order_id, correlation_id, transaction_id, amount, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OrderID,
		c.CorrelationID,
		c.TransactionID,
		c.Amount,
		c.Status,
		c.Reason,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment capture: %w", err)
	}

	return nil
}

// ListByOrderID returns all capture attempts for one order, oldest first.
func (r *CaptureRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.Capture, error) {
	query := `
		SELECT id, order_id, correlation_id, transaction_id, amount, status, reason, created_at
		FROM payment_captures
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payment captures: %w", err)
	}
	defer rows.Close()

	captures := make([]domain.Capture, 0)
	for rows.Next() {
		var c domain.Capture
		if err := rows.Scan(
			&c.ID,
			&c.OrderID,
			&c.CorrelationID,
			&c.TransactionID,
			&c.Amount,
			&c.Status,
			&c.Reason,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment capture row: %w", err)
		}
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment capture rows: %w", err)
	}

	return captures, nil
}
