package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/analytics/metrics"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// Consumer counts every saga event into the analytics store. It consumes
// from an observer queue, so delivery is auto-acknowledged and best effort.
type Consumer struct {
	store  *metrics.Store
	logger *slog.Logger
}

// NewConsumer creates the analytics observer consumer.
func NewConsumer(store *metrics.Store, logger *slog.Logger) *Consumer {
	return &Consumer{
		store:  store,
		logger: logger,
	}
}

// Handle records one saga event.
func (c *Consumer) Handle(ctx context.Context, routingKey string, event *rabbit.Event) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event for analytics: %w", err)
	}

	if err := c.store.Record(ctx, event.EventType, payload); err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "recorded saga event",
		slog.String("routing_key", routingKey),
		slog.String("event_type", event.EventType),
		slog.String("correlation_id", event.CorrelationID),
	)
	return nil
}
