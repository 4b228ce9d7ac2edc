package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product status values. New products default to StatusActive.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Category represents a product category.
// Category names are unique; deleting a category clears (does not cascade to)
// the category reference on its products.
type Category struct {
	CategoryID   int64     `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Product represents a catalog product.
// ProductID is generated at creation (P + YYYYMM + 6 digits) and immutable
// afterwards. Pointer fields are nullable in the database.
type Product struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	CategoryID  *int64          `json:"categoryId,omitempty"`
	Status      string          `json:"status"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
