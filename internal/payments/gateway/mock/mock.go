package mock

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/gateway"
)

// ErrGatewayTimeout simulates an unreachable payment processor.
var ErrGatewayTimeout = errors.New("payment gateway timeout")

// Config tunes the simulated gateway behavior.
type Config struct {
	// Latency is added to every call before an answer is produced.
	Latency time.Duration
	// FaultRate is the probability [0,1] that a call errors instead of answering.
	FaultRate float64
	// DeclineRate is the probability [0,1] that an answered call is declined.
	DeclineRate float64
}

// Gateway is a simulated payment processor for development and testing.
type Gateway struct {
	cfg Config
}

// NewGateway creates a new mock payment gateway.
func NewGateway(cfg Config) *Gateway {
	return &Gateway{cfg: cfg}
}

// Capture simulates a payment capture with configurable latency, fault rate,
// and decline rate.
func (g *Gateway) Capture(ctx context.Context, input gateway.CaptureInput) (*gateway.CaptureResult, error) {
	if g.cfg.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.cfg.Latency):
		}
	}

	if g.cfg.FaultRate > 0 && rand.Float64() < g.cfg.FaultRate { // #nosec G404 -- simulated fault injection
		return nil, ErrGatewayTimeout
	}

	if g.cfg.DeclineRate > 0 && rand.Float64() < g.cfg.DeclineRate { // #nosec G404 -- simulated decline injection
		return &gateway.CaptureResult{
			Status: gateway.StatusDeclined,
			Reason: "card declined",
		}, nil
	}

	return &gateway.CaptureResult{
		TransactionID: "txn_" + uuid.New().String(),
		Status:        gateway.StatusCaptured,
	}, nil
}
