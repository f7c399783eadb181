package domain

import "time"

// Capture is the persisted record of one payment attempt outcome.
type Capture struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	CorrelationID string    `json:"correlation_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
