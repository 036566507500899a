package store

import (
	"context"

	"commerce-service/internal/domain"
)

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
}

// ListProductsParams holds parameters for listing products (pagination, name search, sorting).
type ListProductsParams struct {
	Limit     int
	Offset    int
	Name      string // Case-insensitive substring match; empty matches everything
	SortBy    string // "id", "name" or "price"
	SortOrder string // "asc" or "desc"
}

// ProductStorer defines the database operations for products.
// Create and update write the product row and its category links in one transaction.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) // Returns products and total count
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// OrderStorer defines the database operations for orders.
type OrderStorer interface {
	// CreateOrder writes the order and all of its items atomically and
	// returns the stored detail with the generated id. Each item's unit price
	// is captured from the product inside the same transaction; a missing
	// product yields ErrProductNotFound.
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// UserStorer resolves accounts for authentication.
type UserStorer interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
