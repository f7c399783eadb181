package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/service"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// QueueName is the durable queue through which the payments service receives
// reservations. It is declared with a dead-letter exchange: rejected messages
// land in the dead-letter queue for operator review.
const QueueName = "payments_queue"

// Bindings returns the routing keys the payments queue subscribes to.
func Bindings() []string {
	return []string{events.RoutingKeyInventoryReserved}
}

// ReservationProcessor captures payment for a reservation and publishes the
// outcome.
type ReservationProcessor interface {
	ProcessReservation(ctx context.Context, input service.ProcessReservationInput) error
}

// Consumer reacts to inventory.reserved events.
type Consumer struct {
	service ReservationProcessor
	logger  *slog.Logger
}

// NewConsumer creates the payments saga consumer.
func NewConsumer(service ReservationProcessor, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

// Handle processes one inventory.reserved event. Malformed payloads and
// unanswered gateway calls return plain errors and dead-letter the message;
// only outcome publishing is retried via requeue, since by then the gateway
// has answered and redelivery will resolve through the fallback path.
func (c *Consumer) Handle(ctx context.Context, routingKey string, event *rabbit.Event) error {
	if routingKey != events.RoutingKeyInventoryReserved {
		c.logger.WarnContext(ctx, "ignoring event with unexpected routing key",
			slog.String("routing_key", routingKey),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data events.StockReserved
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("malformed inventory.reserved payload: %w", err)
	}

	input := service.ProcessReservationInput{
		CorrelationID: event.CorrelationID,
		OrderID:       data.OrderID,
		Amount:        data.TotalAmount,
	}

	return c.service.ProcessReservation(ctx, input)
}
