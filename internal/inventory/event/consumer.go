package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/service"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// QueueName is the durable queue through which the inventory service receives
// new orders.
const QueueName = "inventory_queue"

// Bindings returns the routing keys the inventory queue subscribes to.
func Bindings() []string {
	return []string{events.RoutingKeyOrderCreated}
}

// StockReserver attempts a reservation and publishes the outcome.
type StockReserver interface {
	ReserveStock(ctx context.Context, input service.ReserveStockInput) error
}

// Consumer reacts to order.created events.
type Consumer struct {
	service StockReserver
	logger  *slog.Logger
}

// NewConsumer creates the inventory saga consumer.
func NewConsumer(service StockReserver, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

// Handle processes one order.created event. A malformed payload can never
// succeed on redelivery, so it is rejected rather than requeued; transient
// reservation failures bubble up wrapped for requeue.
func (c *Consumer) Handle(ctx context.Context, routingKey string, event *rabbit.Event) error {
	if routingKey != events.RoutingKeyOrderCreated {
		c.logger.WarnContext(ctx, "ignoring event with unexpected routing key",
			slog.String("routing_key", routingKey),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data events.OrderCreated
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("malformed order.created payload: %w", err)
	}

	lines := make([]domain.ReservationLine, len(data.Items))
	for i, item := range data.Items {
		lines[i] = domain.ReservationLine{
			Name:     item.Name,
			Quantity: item.Quantity,
		}
	}

	input := service.ReserveStockInput{
		CorrelationID: event.CorrelationID,
		OrderID:       data.OrderID,
		Lines:         lines,
		TotalAmount:   data.TotalAmount,
	}

	if err := c.service.ReserveStock(ctx, input); err != nil {
		return rabbit.Requeue(err)
	}

	return nil
}
