package domain

import "time"

// Order status constants. CREATED is the only non-terminal status: once an
// order reaches a terminal status it never changes again.
const (
	StatusCreated         = "CREATED"
	StatusRejectedStock   = "REJECTED_STOCK"
	StatusRejectedPayment = "REJECTED_PAYMENT"
	StatusConfirmed       = "CONFIRMED"
)

// Order represents a customer order owned by the orders service. Participants
// never mutate it directly; its status advances only through saga events
// matched by correlation ID.
type Order struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	CorrelationID string    `json:"correlation_id"`
	Status        string    `json:"status"`
	Items         []Item    `json:"items"`
	TotalAmount   float64   `json:"total_amount"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item is one line of an order.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns the item price times quantity.
func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		StatusCreated,
		StatusRejectedStock,
		StatusRejectedPayment,
		StatusConfirmed,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusRejectedStock ||
		status == StatusRejectedPayment ||
		status == StatusConfirmed
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		StatusCreated:         {StatusRejectedStock, StatusRejectedPayment, StatusConfirmed},
		StatusRejectedStock:   {},
		StatusRejectedPayment: {},
		StatusConfirmed:       {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
