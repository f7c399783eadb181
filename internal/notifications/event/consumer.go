package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/stream"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// Consumer forwards every saga event to the stream hub. It consumes from an
// observer queue, so delivery is auto-acknowledged and best effort.
type Consumer struct {
	hub    *stream.Hub
	logger *slog.Logger
}

// NewConsumer creates the notifications observer consumer.
func NewConsumer(hub *stream.Hub, logger *slog.Logger) *Consumer {
	return &Consumer{
		hub:    hub,
		logger: logger,
	}
}

// Handle re-serializes the event envelope and broadcasts it to stream
// subscribers.
func (c *Consumer) Handle(ctx context.Context, routingKey string, event *rabbit.Event) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event for broadcast: %w", err)
	}

	c.hub.Broadcast(payload)

	c.logger.DebugContext(ctx, "broadcast saga event",
		slog.String("routing_key", routingKey),
		slog.String("event_type", event.EventType),
		slog.String("correlation_id", event.CorrelationID),
		slog.Int("subscribers", c.hub.Len()),
	)
	return nil
}
