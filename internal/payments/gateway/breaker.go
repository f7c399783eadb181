package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned by the breaker when it rejects a call outright.
var ErrCircuitOpen = gobreaker.ErrOpenState

// FallbackReasonCircuitOpen is the reason on the substitute result produced
// while the circuit is open.
const FallbackReasonCircuitOpen = "circuit open"

// BreakerConfig holds configuration for the capture circuit breaker.
type BreakerConfig struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the maximum number of probe requests allowed in the
	// half-open state.
	MaxRequests uint32

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// CallTimeout bounds each individual gateway call.
	CallTimeout time.Duration

	// FailureRatio is the ratio of failures to total requests that trips the
	// breaker.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the failure
	// ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns the standard capture breaker tuning: 3s per
// call, trip at 50% failures, 10s cool-down, single half-open probe.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "payment-gateway",
		MaxRequests:  1,
		Timeout:      10 * time.Second,
		CallTimeout:  3 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_fallback_invoked_total",
			Help: "Total number of times the circuit breaker fallback was invoked",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(breakerState)
	prometheus.MustRegister(breakerFallbackTotal)
}

// stateToFloat maps gobreaker states to prometheus gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker wraps a Gateway with circuit breaker protection.
//
// An open circuit does not error: it resolves immediately to a FAILED result
// with reason "circuit open", which the caller turns into payment.failed.
// Pass-through faults (timeouts, gateway outages) propagate as errors; the
// caller has no answer and must not invent one.
type Breaker struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker[*CaptureResult]
	logger  *slog.Logger
	cfg     BreakerConfig
}

// NewBreaker wraps the gateway with a circuit breaker.
func NewBreaker(inner Gateway, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	cb := gobreaker.NewCircuitBreaker[*CaptureResult](settings)

	// Set initial state metric.
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker{
		inner:   inner,
		breaker: cb,
		logger:  logger,
		cfg:     cfg,
	}
}

// Capture executes the gateway call through the circuit breaker with a
// per-call timeout.
func (b *Breaker) Capture(ctx context.Context, input CaptureInput) (*CaptureResult, error) {
	result, err := b.breaker.Execute(func() (*CaptureResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()
		return b.inner.Capture(callCtx, input)
	})

	// ErrTooManyRequests means a half-open probe is already in flight; the
	// call was rejected without reaching the gateway, same as an open circuit.
	if err != nil && (errors.Is(err, ErrCircuitOpen) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		breakerFallbackTotal.WithLabelValues(b.cfg.Name).Inc()
		b.logger.WarnContext(ctx, "circuit breaker open, failing payment without gateway call",
			slog.String("breaker", b.cfg.Name),
			slog.String("order_id", input.OrderID),
		)
		return &CaptureResult{
			Status: StatusFailed,
			Reason: FallbackReasonCircuitOpen,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// State returns the current state of the circuit breaker.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
