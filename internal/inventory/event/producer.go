package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// Producer publishes inventory saga events to the event exchange.
type Producer struct {
	publisher rabbit.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the inventory service.
func NewProducer(publisher rabbit.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishStockReserved publishes an inventory.reserved event. The order total
// rides along so the payment service charges the real amount.
func (p *Producer) PublishStockReserved(ctx context.Context, correlationID, orderID string, totalAmount float64) error {
	data := events.StockReserved{
		OrderID:     orderID,
		TotalAmount: totalAmount,
	}

	event, err := rabbit.NewEvent(events.TypeStockReserved, correlationID, data)
	if err != nil {
		return fmt.Errorf("create inventory.reserved event: %w", err)
	}

	if err := p.publisher.Publish(ctx, events.RoutingKeyInventoryReserved, event); err != nil {
		return fmt.Errorf("publish inventory.reserved event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.reserved event",
		slog.String("order_id", orderID),
		slog.String("correlation_id", correlationID),
	)

	return nil
}

// PublishStockFailed publishes an inventory.failed event.
func (p *Producer) PublishStockFailed(ctx context.Context, correlationID, orderID, reason string) error {
	data := events.StockFailed{
		OrderID: orderID,
		Reason:  reason,
	}

	event, err := rabbit.NewEvent(events.TypeStockFailed, correlationID, data)
	if err != nil {
		return fmt.Errorf("create inventory.failed event: %w", err)
	}

	if err := p.publisher.Publish(ctx, events.RoutingKeyInventoryFailed, event); err != nil {
		return fmt.Errorf("publish inventory.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.failed event",
		slog.String("order_id", orderID),
		slog.String("correlation_id", correlationID),
		slog.String("reason", reason),
	)

	return nil
}
