package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Pending payment",
	OrderStatusProcessing: "Processing",
	OrderStatusOnHold:     "On hold",
	OrderStatusCompleted:  "Completed",
	OrderStatusCancelled:  "Cancelled",
	OrderStatusRefunded:   "Refunded",
	OrderStatusFailed:     "Failed",
}

// Label returns the display text, or the raw code for statuses outside the
// known set.
func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

type Order struct {
	ID                 int64           `json:"id"`
	Number             string          `json:"number"`
	CustomerID         int64           `json:"customer_id"`
	Status             OrderStatus     `json:"status"`
	StatusLabel        string          `json:"status_label"`
	Currency           string          `json:"currency"`
	Total              decimal.Decimal `json:"total"`
	ShippingTotal      decimal.Decimal `json:"shipping_total"`
	ItemsSubtotal      decimal.Decimal `json:"items_subtotal"`
	LineItems          []OrderItem     `json:"line_items"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	CustomerNote       string          `json:"customer_note"`
	DateCreated        time.Time       `json:"date_created"`
}
