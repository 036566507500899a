package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/domain"
	"commerce-service/internal/store"
	"commerce-service/internal/store/storetest"
)

func TestCategoryService_FindAll(t *testing.T) {
	categories := new(storetest.MockCategoryStorer)
	expected := []domain.Category{{ID: 3, Name: "Computadores"}, {ID: 2, Name: "Eletrônicos"}, {ID: 1, Name: "Livros"}}
	categories.On("ListCategories", mock.Anything).Return(expected, nil).Once()

	got, err := NewCategoryService(categories).FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	categories.AssertExpectations(t)
}

func TestCategoryService_FindAll_StoreError(t *testing.T) {
	categories := new(storetest.MockCategoryStorer)
	dbErr := errors.New("connection reset")
	categories.On("ListCategories", mock.Anything).Return(nil, dbErr).Once()

	_, err := NewCategoryService(categories).FindAll(context.Background())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCategoryService_FindByID(t *testing.T) {
	categories := new(storetest.MockCategoryStorer)
	categories.On("GetCategoryByID", mock.Anything, int64(1)).Return(&domain.Category{ID: 1, Name: "Livros"}, nil).Once()
	categories.On("GetCategoryByID", mock.Anything, int64(42)).Return(nil, store.ErrCategoryNotFound).Once()
	svc := NewCategoryService(categories)

	got, err := svc.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Livros", got.Name)

	_, err = svc.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	categories.AssertExpectations(t)
}
