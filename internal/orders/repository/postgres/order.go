package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/database"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
// Items are stored as a JSONB column; orders are small and always read whole.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (id, customer_id, correlation_id, status, items, total_amount, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.CustomerID,
		o.CorrelationID,
		o.Status,
		itemsJSON,
		o.TotalAmount,
		o.FailureReason,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, correlation_id, status, items, total_amount, failure_reason, created_at, updated_at
		FROM orders
		WHERE id = $1`

	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.CustomerID,
		&o.CorrelationID,
		&o.Status,
		&itemsJSON,
		&o.TotalAmount,
		&o.FailureReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := unmarshalItems(itemsJSON, &o); err != nil {
		return nil, err
	}

	return &o, nil
}

// List returns the most recent orders, newest first.
func (r *OrderRepository) List(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, customer_id, correlation_id, status, items, total_amount, failure_reason, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			o         domain.Order
			itemsJSON []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.CorrelationID,
			&o.Status,
			&itemsJSON,
			&o.TotalAmount,
			&o.FailureReason,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := unmarshalItems(itemsJSON, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// ResolveByCorrelationID advances the order from CREATED to a terminal status.
// The status predicate in the WHERE clause is what enforces the no-regression
// rule: a second outcome for the same saga matches zero rows.
func (r *OrderRepository) ResolveByCorrelationID(ctx context.Context, correlationID, status, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, failure_reason = $2, updated_at = $3
		WHERE correlation_id = $4 AND status = $5`

	ct, err := r.pool.Exec(ctx, query, status, reason, time.Now().UTC(), correlationID, domain.StatusCreated)
	if err != nil {
		return false, fmt.Errorf("resolve order status: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

func unmarshalItems(itemsJSON []byte, o *domain.Order) error {
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Items = []domain.Item{}
	}
	return nil
}
