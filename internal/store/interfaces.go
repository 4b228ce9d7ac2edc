package store

import (
	"context"

	"bakery-admin-service/internal/domain"
)

// ListParams holds common pagination parameters (1-based page).
type ListParams struct {
	Page     int
	PageSize int
}

// Offset converts the 1-based page into a SQL offset.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
}

// ProductStorer defines the database operations for products.
//
// CreateProductWithTags performs the product insert and all tag/option
// association inserts inside a single transaction: either every row commits
// or none survive.
type ProductStorer interface {
	CreateProductWithTags(ctx context.Context, product *domain.Product, selections []domain.TagSelection) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListParams) ([]domain.Product, int, error) // Returns products and total count
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, productID string, quantityChange int32) (*domain.Product, error)
}

// TagStorer defines the database operations for product tags, their options,
// and the product<->tag association rows.
type TagStorer interface {
	CreateTag(ctx context.Context, tag *domain.ProductTag) (*domain.ProductTag, error)
	GetTagByID(ctx context.Context, id int64) (*domain.ProductTag, error) // loaded with options
	ListTags(ctx context.Context) ([]domain.ProductTag, error)
	UpdateTag(ctx context.Context, tag *domain.ProductTag) (*domain.ProductTag, error)
	DeleteTag(ctx context.Context, id int64) error

	CreateOption(ctx context.Context, option *domain.ProductTagOption) (*domain.ProductTagOption, error)
	GetOptionByID(ctx context.Context, id int64) (*domain.ProductTagOption, error)
	ListOptionsByTag(ctx context.Context, tagID int64) ([]domain.ProductTagOption, error)
	DeleteOption(ctx context.Context, id int64) error

	ListTagsByProduct(ctx context.Context, productID string) ([]domain.ProductTag, error)
	ListProductTagOptions(ctx context.Context, productID string, tagID int64) ([]domain.ProductTagOption, error)
	AddProductTags(ctx context.Context, productID string, selections []domain.TagSelection) error
	RemoveProductTags(ctx context.Context, productID string, tagIDs []int64) error
	RemoveProductTagOption(ctx context.Context, productID string, tagID, optionID int64) error
}

// AdminStorer defines the database operations for admin accounts.
type AdminStorer interface {
	CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*domain.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error)
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
	UpdateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	DeleteAdmin(ctx context.Context, id int64) error
}

// OrderStorer defines the read/status operations the admin backend needs for
// orders. Order placement is owned by the customer-facing service.
type OrderStorer interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error) // loaded with items
	ListOrders(ctx context.Context, params ListParams) ([]domain.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*domain.Order, error)
}
