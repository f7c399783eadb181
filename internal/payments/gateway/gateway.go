package gateway

import "context"

// Capture statuses returned by the payment gateway.
const (
	StatusCaptured = "CAPTURED"
	StatusDeclined = "DECLINED"
	StatusFailed   = "FAILED"
)

// CaptureInput holds the parameters for a payment capture.
type CaptureInput struct {
	OrderID string
	Amount  float64
}

// CaptureResult is the gateway's answer to a capture attempt. Declines are
// results, not errors: the gateway answered, the payment was refused. Errors
// are reserved for faults where no answer was obtained (timeouts, outages).
type CaptureResult struct {
	TransactionID string
	Status        string
	Reason        string
}

// Gateway is the payment capture interface.
type Gateway interface {
	Capture(ctx context.Context, input CaptureInput) (*CaptureResult, error)
}
