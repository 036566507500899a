package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/store"
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,notblank,min=3,max=80"`
	Description string          `json:"description" validate:"required,notblank,min=10"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,lte=9999999999.99,maxdecimals=2"`
	ImgURL      *string         `json:"img_url"`
	Categories  []CategoryRef   `json:"categories" validate:"required,min=1"`
}

// CategoryRef names a category by id. Names sent by clients are ignored.
type CategoryRef struct {
	ID int64 `json:"id"`
}

// PageRequest selects one page of a listing. Page is zero-based.
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	SortOrder string
}

// Page is one page of results plus the totals needed to page further.
type Page[T any] struct {
	Content       []T
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
}

// ProductService is the product workflow.
type ProductService struct {
	products store.ProductStorer
	validate *validator.Validate
}

func NewProductService(products store.ProductStorer) *ProductService {
	return &ProductService{products: products, validate: newValidator()}
}

func (s *ProductService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, mapProductError(err, id)
	}
	return product, nil
}

// FindAll returns the products whose name contains name, ignoring case.
func (s *ProductService) FindAll(ctx context.Context, name string, page PageRequest) (*Page[domain.ProductMin], error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}
	products, total, err := s.products.ListProducts(ctx, store.ListProductsParams{
		Limit:     page.Size,
		Offset:    page.Page * page.Size,
		Name:      strings.TrimSpace(name),
		SortBy:    page.SortBy,
		SortOrder: page.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	content := make([]domain.ProductMin, len(products))
	for i, p := range products {
		content[i] = p.Min()
	}
	totalPages := 0
	if total > 0 && page.Size > 0 {
		totalPages = (total + page.Size - 1) / page.Size
	}
	return &Page[domain.ProductMin]{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

func (s *ProductService) Insert(ctx context.Context, caller auth.Caller, input ProductInput) (*domain.Product, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, input).orNil(); err != nil {
		return nil, err
	}

	created, err := s.products.CreateProduct(ctx, input.toDomain(0))
	if err != nil {
		return nil, mapProductError(err, 0)
	}
	return created, nil
}

// Update overwrites the product and replaces its whole category set.
func (s *ProductService) Update(ctx context.Context, caller auth.Caller, id int64, input ProductInput) (*domain.Product, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, input).orNil(); err != nil {
		return nil, err
	}

	updated, err := s.products.UpdateProduct(ctx, input.toDomain(id))
	if err != nil {
		return nil, mapProductError(err, id)
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, caller auth.Caller, id int64) error {
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return mapProductError(err, id)
	}
	return nil
}

// checkPage rejects pages whose offset cannot be represented.
func checkPage(page PageRequest) error {
	verr := &ValidationError{}
	if page.Size <= 0 {
		verr.add("size", "Page size must be positive.")
	}
	if page.Page < 0 || (page.Size > 0 && page.Page > math.MaxInt/page.Size) {
		verr.add("page", "Page out of range.")
	}
	return verr.orNil()
}

func (in ProductInput) toDomain(id int64) *domain.Product {
	p := &domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImgURL:      in.ImgURL,
		Categories:  make([]domain.Category, len(in.Categories)),
	}
	for i, c := range in.Categories {
		p.Categories[i] = domain.Category{ID: c.ID}
	}
	return p
}

func mapProductError(err error, id int64) error {
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		return notFound("product", id)
	case errors.Is(err, store.ErrIntegrityViolation):
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	default:
		return fmt.Errorf("service: product operation failed: %w", err)
	}
}
