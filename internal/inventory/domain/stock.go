package domain

import "errors"

// ErrInsufficientStock marks a reservation that cannot be satisfied, either
// because the item is unknown or its available count is too low. It is a
// business outcome, not a fault: the saga answers it with inventory.failed.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockItem is the available quantity of one item.
type StockItem struct {
	Name      string `json:"name"`
	Available int    `json:"available"`
}

// ReservationLine is one item/quantity pair of a reservation request.
type ReservationLine struct {
	Name     string
	Quantity int
}
