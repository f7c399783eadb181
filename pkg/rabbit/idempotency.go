package rabbit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// IdempotencyStore is the interface for checking and recording processed
// event IDs. Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	// Contains returns true if the event ID has already been processed.
	Contains(ctx context.Context, eventID string) (bool, error)
	// Add records an event ID as processed.
	Add(ctx context.Context, eventID string) error
}

// IdempotentHandler wraps a Handler with deduplication against the store.
//
// Ordering matters: the check happens before the handler, the record after
// the handler succeeds but before the ack the dispatcher issues on nil. A
// failed check is a transient error and requeues the message. A failed record
// after a successful handler is logged and the message is still acked; the
// window where a crash between side effect and record causes one redelivery
// is accepted, which is why handlers must themselves tolerate duplicates of
// their publishes.
func IdempotentHandler(queue string, store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, routingKey string, event *Event) error {
		if event.EventID == "" {
			// Cannot deduplicate without an ID, pass through.
			return inner(ctx, routingKey, event)
		}

		seen, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.Warn("idempotency check failed, requeueing",
				slog.String("event_id", event.EventID),
				slog.String("routing_key", routingKey),
				slog.String("error", err.Error()),
			)
			return Requeue(err)
		}

		if seen {
			ConsumerMessagesDuplicate.WithLabelValues(queue, routingKey).Inc()
			logger.Info("skipping duplicate event",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.String("correlation_id", event.CorrelationID),
			)
			return nil
		}

		if err := inner(ctx, routingKey, event); err != nil {
			return err
		}

		if addErr := store.Add(ctx, event.EventID); addErr != nil {
			logger.Warn("failed to record processed event, duplicate delivery possible",
				slog.String("event_id", event.EventID),
				slog.String("error", addErr.Error()),
			)
		}

		return nil
	}
}

// MemoryIdempotencyStore is an in-memory IdempotencyStore with TTL expiry.
// Suitable for tests and single-instance development setups.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	ttl     time.Duration
}

// NewMemoryIdempotencyStore creates an in-memory store. Expired entries are
// lazily removed on access.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Contains checks if the event ID exists and is not expired.
func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	ts, exists := s.entries[eventID]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if time.Since(ts) > s.ttl {
		s.mu.Lock()
		delete(s.entries, eventID)
		s.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// Add records the event ID with the current timestamp.
func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	s.entries[eventID] = time.Now()
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, including not yet expired ones.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
