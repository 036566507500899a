package service

import (
	"context"
	"errors"
	"fmt"

	"commerce-service/internal/domain"
	"commerce-service/internal/store"
)

// CategoryService exposes the read-only category reference data.
type CategoryService struct {
	categories store.CategoryStorer
}

func NewCategoryService(categories store.CategoryStorer) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) FindAll(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, notFound("category", id)
		}
		return nil, fmt.Errorf("service: failed to get category %d: %w", id, err)
	}
	return category, nil
}
