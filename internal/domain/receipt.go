package domain

import "time"

// Receipt records an order placed through this storefront, tied to the
// session that placed it.
type Receipt struct {
	SessionID     string          `json:"session_id"`
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []OrderLineItem `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderPlacedEvent is published once per placed order.
type OrderPlacedEvent struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	SessionID   string          `json:"session_id"`
	Items       []OrderLineItem `json:"items"`
	PlacedAt    time.Time       `json:"placed_at"`
}
