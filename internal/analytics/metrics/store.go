package metrics

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the aggregated counters.
const (
	keyTotalEvents  = "analytics:events:total"
	keyEventsByType = "analytics:events:by_type"
	keyLastEvent    = "analytics:last_event"
)

// Snapshot is the aggregated view served by the analytics endpoint.
type Snapshot struct {
	TotalEvents  int64            `json:"total_events"`
	EventsByType map[string]int64 `json:"events_by_type"`
	LastEvent    string           `json:"last_event,omitempty"`
}

// Store keeps running saga event counters in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed analytics store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Record counts one event: bumps the total, the per-type counter, and
// remembers the raw envelope as the last event seen.
func (s *Store) Record(ctx context.Context, eventType string, payload []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, keyTotalEvents)
	pipe.HIncrBy(ctx, keyEventsByType, eventType, 1)
	pipe.Set(ctx, keyLastEvent, payload, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record event %s: %w", eventType, err)
	}
	return nil
}

// Snapshot reads the current counters. Missing keys read as zero values.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	total, err := s.client.Get(ctx, keyTotalEvents).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read total events: %w", err)
	}

	byTypeRaw, err := s.client.HGetAll(ctx, keyEventsByType).Result()
	if err != nil {
		return nil, fmt.Errorf("read events by type: %w", err)
	}

	last, err := s.client.Get(ctx, keyLastEvent).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read last event: %w", err)
	}

	snapshot := &Snapshot{
		EventsByType: make(map[string]int64, len(byTypeRaw)),
		LastEvent:    last,
	}
	if total != "" {
		n, err := strconv.ParseInt(total, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse total events counter %q: %w", total, err)
		}
		snapshot.TotalEvents = n
	}
	for eventType, count := range byTypeRaw {
		n, err := strconv.ParseInt(count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse counter for %s: %w", eventType, err)
		}
		snapshot.EventsByType[eventType] = n
	}

	return snapshot, nil
}
