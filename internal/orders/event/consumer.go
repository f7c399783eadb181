package event

import (
	"context"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// QueueName is the durable queue through which the orders service receives
// saga outcomes.
const QueueName = "orders_choreography_queue"

// Bindings returns the routing keys the orders queue subscribes to.
func Bindings() []string {
	return []string{
		events.RoutingKeyInventoryFailed,
		events.RoutingKeyPaymentProcessed,
		events.RoutingKeyPaymentFailed,
	}
}

// statusByRoutingKey maps each saga outcome event to the terminal order status
// it produces.
var statusByRoutingKey = map[string]string{
	events.RoutingKeyInventoryFailed:  domain.StatusRejectedStock,
	events.RoutingKeyPaymentProcessed: domain.StatusConfirmed,
	events.RoutingKeyPaymentFailed:    domain.StatusRejectedPayment,
}

// OrderResolver applies a saga outcome to an order.
type OrderResolver interface {
	ResolveOrder(ctx context.Context, correlationID, status, reason string) error
}

// Consumer reacts to saga outcome events and advances order state.
type Consumer struct {
	service OrderResolver
	logger  *slog.Logger
}

// NewConsumer creates the orders saga consumer.
func NewConsumer(service OrderResolver, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

// Handle processes one saga outcome event. Events the service cannot act on
// (unknown routing key, missing correlation ID) are acked and dropped;
// redelivering them could never succeed. Storage failures are requeued.
func (c *Consumer) Handle(ctx context.Context, routingKey string, event *rabbit.Event) error {
	status, ok := statusByRoutingKey[routingKey]
	if !ok {
		c.logger.WarnContext(ctx, "ignoring event with unexpected routing key",
			slog.String("routing_key", routingKey),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if event.CorrelationID == "" {
		c.logger.WarnContext(ctx, "ignoring event without correlation id",
			slog.String("routing_key", routingKey),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	reason := failureReason(routingKey, event, c.logger)

	if err := c.service.ResolveOrder(ctx, event.CorrelationID, status, reason); err != nil {
		return rabbit.Requeue(err)
	}

	return nil
}

// failureReason extracts the reason field from failure payloads. A malformed
// payload still resolves the order; the reason is informational.
func failureReason(routingKey string, event *rabbit.Event, logger *slog.Logger) string {
	switch routingKey {
	case events.RoutingKeyInventoryFailed:
		var data events.StockFailed
		if err := event.UnmarshalData(&data); err != nil {
			logger.Warn("malformed inventory.failed payload", slog.String("event_id", event.EventID))
			return ""
		}
		return data.Reason
	case events.RoutingKeyPaymentFailed:
		var data events.PaymentFailed
		if err := event.UnmarshalData(&data); err != nil {
			logger.Warn("malformed payment.failed payload", slog.String("event_id", event.EventID))
			return ""
		}
		return data.Reason
	default:
		return ""
	}
}
