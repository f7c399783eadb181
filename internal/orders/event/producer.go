package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// Producer publishes order domain events to the event exchange.
type Producer struct {
	publisher rabbit.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the orders service.
func NewProducer(publisher rabbit.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishOrderCreated publishes the order.created event that starts the saga.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]events.OrderItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = events.OrderItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}

	data := events.OrderCreated{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Items:       items,
		TotalAmount: order.TotalAmount,
	}

	event, err := rabbit.NewEvent(events.TypeOrderCreated, order.CorrelationID, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.publisher.Publish(ctx, events.RoutingKeyOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("correlation_id", order.CorrelationID),
	)

	return nil
}
