package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values, in lifecycle order.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderPreparing = "preparing"
	OrderDelivered = "delivered"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order is a customer order as seen by the admin backend (read and status
// transitions only; order placement belongs to the customer-facing service).
type Order struct {
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Remark      *string         `json:"remark,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is one product line within an order. UnitPrice is captured at
// order time and does not track later product price changes.
type OrderItem struct {
	OrderItemID string          `json:"orderItemId"`
	OrderID     string          `json:"orderId"`
	ProductID   string          `json:"productId"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ValidOrderStatus reports whether s is one of the known order states.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderPaid, OrderPreparing, OrderDelivered, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}
