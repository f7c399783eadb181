package rabbit

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by Publish when the broker connection is down.
	// Callers decide whether to surface or retry; the client itself keeps
	// reconnecting in the background.
	ErrNotConnected = errors.New("rabbit: not connected")

	// ErrRequeue marks a handler error as transient. The dispatcher responds
	// with a negative acknowledgement that requeues the message, so the broker
	// redelivers it instead of dead-lettering.
	ErrRequeue = errors.New("rabbit: requeue")
)

// Requeue wraps err so the dispatcher requeues the message. Use it for
// transient failures (storage unavailable, publish failed) where redelivery
// is the right recovery.
func Requeue(err error) error {
	return fmt.Errorf("%w: %w", ErrRequeue, err)
}
