// Package events defines the routing keys, event type names, and payload
// shapes shared by every saga participant and observer. The envelope itself
// lives in pkg/rabbit; this package is the contract for what travels inside.
package events

// Routing keys on the topic exchange. Participants bind to the specific keys
// they react to; observers bind to "#".
const (
	RoutingKeyOrderCreated      = "order.created"
	RoutingKeyInventoryReserved = "inventory.reserved"
	RoutingKeyInventoryFailed   = "inventory.failed"
	RoutingKeyPaymentProcessed  = "payment.processed"
	RoutingKeyPaymentFailed     = "payment.failed"
)

// Event type names carried in the envelope's event_type field.
const (
	TypeOrderCreated     = "OrderCreated"
	TypeStockReserved    = "StockReserved"
	TypeStockFailed      = "StockFailed"
	TypePaymentProcessed = "PaymentProcessed"
	TypePaymentFailed    = "PaymentFailed"
)

// OrderItem is one line of an order as it travels on the wire.
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderCreated is the payload of order.created, published by the orders
// service when a new order is accepted.
type OrderCreated struct {
	OrderID     string      `json:"order_id"`
	CustomerID  string      `json:"customer_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
}

// StockReserved is the payload of inventory.reserved. It carries the order
// total forward so the payment service charges the real amount.
type StockReserved struct {
	OrderID     string  `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
}

// StockFailed is the payload of inventory.failed.
type StockFailed struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// PaymentProcessed is the payload of payment.processed.
type PaymentProcessed struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

// PaymentFailed is the payload of payment.failed.
type PaymentFailed struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}
