package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ProcessedMessageStore records consumed event IDs in a per-service ledger
// table (message_id primary key, processed_at timestamp). It implements
// rabbit.IdempotencyStore.
type ProcessedMessageStore struct {
	db    DBTX
	table string
}

// NewProcessedMessageStore creates a ledger store backed by the given table.
// The table name comes from service configuration, never from user input.
func NewProcessedMessageStore(db DBTX, table string) *ProcessedMessageStore {
	return &ProcessedMessageStore{db: db, table: table}
}

// Contains reports whether the event ID is already in the ledger.
func (s *ProcessedMessageStore) Contains(ctx context.Context, eventID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE message_id = $1", s.table)

	var one int
	err := s.db.QueryRow(ctx, query, eventID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed message: %w", err)
	}
	return true, nil
}

// Add records the event ID. Inserting an ID that is already present is a
// no-op, so concurrent redeliveries cannot fail the mark step.
func (s *ProcessedMessageStore) Add(ctx context.Context, eventID string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (message_id, processed_at) VALUES ($1, NOW()) ON CONFLICT (message_id) DO NOTHING",
		s.table,
	)

	if _, err := s.db.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("record processed message: %w", err)
	}
	return nil
}
