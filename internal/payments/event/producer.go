package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// Producer publishes payment saga events to the event exchange.
type Producer struct {
	publisher rabbit.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the payments service.
func NewProducer(publisher rabbit.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishPaymentProcessed publishes a payment.processed event.
func (p *Producer) PublishPaymentProcessed(ctx context.Context, correlationID, orderID, transactionID string) error {
	data := events.PaymentProcessed{
		OrderID:       orderID,
		TransactionID: transactionID,
	}

	event, err := rabbit.NewEvent(events.TypePaymentProcessed, correlationID, data)
	if err != nil {
		return fmt.Errorf("create payment.processed event: %w", err)
	}

	if err := p.publisher.Publish(ctx, events.RoutingKeyPaymentProcessed, event); err != nil {
		return fmt.Errorf("publish payment.processed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.processed event",
		slog.String("order_id", orderID),
		slog.String("correlation_id", correlationID),
		slog.String("transaction_id", transactionID),
	)

	return nil
}

// PublishPaymentFailed publishes a payment.failed event.
func (p *Producer) PublishPaymentFailed(ctx context.Context, correlationID, orderID, reason string) error {
	data := events.PaymentFailed{
		OrderID: orderID,
		Reason:  reason,
	}

	event, err := rabbit.NewEvent(events.TypePaymentFailed, correlationID, data)
	if err != nil {
		return fmt.Errorf("create payment.failed event: %w", err)
	}

	if err := p.publisher.Publish(ctx, events.RoutingKeyPaymentFailed, event); err != nil {
		return fmt.Errorf("publish payment.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.failed event",
		slog.String("order_id", orderID),
		slog.String("correlation_id", correlationID),
		slog.String("reason", reason),
	)

	return nil
}
