// Package storetest provides testify mocks of the store interfaces.
package storetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"commerce-service/internal/domain"
	"commerce-service/internal/store"
)

var (
	_ store.CategoryStorer = (*MockCategoryStorer)(nil)
	_ store.ProductStorer  = (*MockProductStorer)(nil)
	_ store.OrderStorer    = (*MockOrderStorer)(nil)
	_ store.UserStorer     = (*MockUserStorer)(nil)
)

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrderStorer is a mock implementation of store.OrderStorer
type MockOrderStorer struct {
	mock.Mock
}

func (m *MockOrderStorer) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Order) *domain.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStorer) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStorer) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStorer) DeleteOrder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserStorer is a mock implementation of store.UserStorer
type MockUserStorer struct {
	mock.Mock
}

func (m *MockUserStorer) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// PtrTo returns a pointer to v (useful for optional fields in domain structs).
func PtrTo[T any](v T) *T {
	return &v
}
