package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/event"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/gateway"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/repository"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

// ProcessReservationInput holds the parameters taken from an
// inventory.reserved event.
type ProcessReservationInput struct {
	CorrelationID string
	OrderID       string
	Amount        float64
}

// PaymentService implements the business logic for payment capture.
type PaymentService struct {
	gateway  gateway.Gateway
	repo     repository.CaptureRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(gw gateway.Gateway, repo repository.CaptureRepository, producer *event.Producer, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		gateway:  gw,
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// ProcessReservation captures payment for a reserved order and publishes the
// outcome event.
//
// A gateway error means no answer was obtained; it propagates so the message
// is dead-lettered for operator review instead of guessing an outcome. A
// CAPTURED or DECLINED result (or the breaker's open-circuit fallback) is an
// answer and always produces exactly one outcome event.
func (s *PaymentService) ProcessReservation(ctx context.Context, input ProcessReservationInput) error {
	result, err := s.gateway.Capture(ctx, gateway.CaptureInput{
		OrderID: input.OrderID,
		Amount:  input.Amount,
	})
	if err != nil {
		return fmt.Errorf("capture payment for order %s: %w", input.OrderID, err)
	}

	s.saveCapture(ctx, input, result)

	if result.Status == gateway.StatusCaptured {
		if pubErr := s.producer.PublishPaymentProcessed(ctx, input.CorrelationID, input.OrderID, result.TransactionID); pubErr != nil {
			return rabbit.Requeue(fmt.Errorf("publish capture outcome: %w", pubErr))
		}
		s.logger.InfoContext(ctx, "payment captured",
			slog.String("order_id", input.OrderID),
			slog.String("correlation_id", input.CorrelationID),
			slog.String("transaction_id", result.TransactionID),
			slog.Float64("amount", input.Amount),
		)
		return nil
	}

	if pubErr := s.producer.PublishPaymentFailed(ctx, input.CorrelationID, input.OrderID, result.Reason); pubErr != nil {
		return rabbit.Requeue(fmt.Errorf("publish capture outcome: %w", pubErr))
	}
	s.logger.InfoContext(ctx, "payment failed",
		slog.String("order_id", input.OrderID),
		slog.String("correlation_id", input.CorrelationID),
		slog.String("status", result.Status),
		slog.String("reason", result.Reason),
	)
	return nil
}

// saveCapture records the attempt outcome. The record is an audit trail, not
// part of the saga contract: a write failure is logged and processing goes on
// so the outcome event is still published.
func (s *PaymentService) saveCapture(ctx context.Context, input ProcessReservationInput, result *gateway.CaptureResult) {
	capture := &domain.Capture{
		ID:            uuid.New().String(),
		OrderID:       input.OrderID,
		CorrelationID: input.CorrelationID,
		TransactionID: result.TransactionID,
		Amount:        input.Amount,
		Status:        result.Status,
		Reason:        result.Reason,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, capture); err != nil {
		s.logger.ErrorContext(ctx, "failed to save payment capture record",
			slog.String("order_id", input.OrderID),
			slog.String("error", err.Error()),
		)
	}
}

// ListCaptures returns all capture attempts for one order.
func (s *PaymentService) ListCaptures(ctx context.Context, orderID string) ([]domain.Capture, error) {
	captures, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return captures, nil
}
