package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/domain"
)

var (
	productColumns  = []string{"id", "name", "description", "price", "img_url"}
	categoryColumns = []string{"id", "name"}
)

func newPlayStation() *domain.Product {
	img := "http://imagem.produto.com"
	return &domain.Product{
		Name:        "PlayStation 5",
		Description: "A gaming console with plenty of characters",
		Price:       decimal.RequireFromString("1250.00"),
		ImgURL:      &img,
		Categories:  []domain.Category{{ID: 2}, {ID: 3}},
	}
}

func TestPostgresStore_CreateProduct(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()
	product := newPlayStation()

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO tb_product (name, description, price, img_url)")).
		WithArgs(product.Name, product.Description, product.Price, *product.ImgURL).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(26, product.Name, product.Description, "1250.00", *product.ImgURL))
	mock.ExpectExec(q("INSERT INTO tb_product_category (product_id, category_id)")).
		WithArgs(int64(26), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO tb_product_category (product_id, category_id)")).
		WithArgs(int64(26), int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("JOIN tb_product_category pc ON pc.category_id = c.id")).
		WithArgs(int64(26)).
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(2, "Eletrônicos").AddRow(3, "Computadores"))
	mock.ExpectCommit()

	created, err := store.CreateProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, int64(26), created.ID)
	assert.True(t, decimal.NewFromInt(1250).Equal(created.Price))
	require.NotNil(t, created.ImgURL)
	assert.Equal(t, "http://imagem.produto.com", *created.ImgURL)
	assert.Equal(t, []domain.Category{{ID: 2, Name: "Eletrônicos"}, {ID: 3, Name: "Computadores"}}, created.Categories)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateProduct_UnknownCategoryRollsBack(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()
	product := newPlayStation()
	product.Categories = []domain.Category{{ID: 99}}

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO tb_product")).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(26, product.Name, product.Description, "1250.00", nil))
	mock.ExpectExec(q("INSERT INTO tb_product_category")).
		WithArgs(int64(26), int64(99)).
		WillReturnError(fkViolation("fk_product_category_category"))
	mock.ExpectRollback()

	_, err := store.CreateProduct(context.Background(), product)
	assert.ErrorIs(t, err, ErrIntegrityViolation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProductByID(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(q("FROM tb_product") + `\s+` + q("WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(3, "Macbook Pro", "Nam eleifend maximus tortor", "1250.00", nil))
	mock.ExpectQuery(q("JOIN tb_product_category")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(3, "Computadores"))

	product, err := store.GetProductByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Macbook Pro", product.Name)
	assert.Nil(t, product.ImgURL)
	assert.Equal(t, []domain.Category{{ID: 3, Name: "Computadores"}}, product.Categories)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProductByID_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(q("FROM tb_product")).WithArgs(int64(1000)).WillReturnError(sql.ErrNoRows)

	_, err := store.GetProductByID(context.Background(), 1000)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestPostgresStore_ListProducts(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(q("SELECT COUNT(*) FROM tb_product WHERE name ILIKE $1;")).
		WithArgs("%mac%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(q("ORDER BY price DESC, id ASC") + `\s+` + q("LIMIT $2 OFFSET $3")).
		WithArgs("%mac%", 2, 2).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(5, "Rails for Dummies", "Cras fringilla convallis sem vel faucibus", "100.99", nil))

	products, total, err := store.ListProducts(context.Background(), ListProductsParams{
		Limit: 2, Offset: 2, Name: "mac", SortBy: "Price", SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 1)
	assert.Equal(t, int64(5), products[0].ID)
	assert.True(t, decimal.RequireFromString("100.99").Equal(products[0].Price))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_UnknownSortFallsBackToID(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(q("SELECT COUNT(*)")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q("ORDER BY id ASC, id ASC")).
		WithArgs("%%", 20, 0).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(1, "The Lord of the Rings", "Lorem ipsum dolor sit amet", "90.50", nil))

	products, total, err := store.ListProducts(context.Background(), ListProductsParams{
		Limit: 20, SortBy: "description; DROP TABLE tb_product", SortOrder: "sideways",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_NoMatches(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(q("SELECT COUNT(*)")).WithArgs("%xyz%").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	products, total, err := store.ListProducts(context.Background(), ListProductsParams{Limit: 20, Name: "xyz"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateProduct_ReplacesCategories(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()
	product := newPlayStation()
	product.ID = 1
	product.Categories = []domain.Category{{ID: 1}}

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE tb_product")).
		WithArgs(product.Name, product.Description, product.Price, *product.ImgURL, int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, product.Name, product.Description, "1250.00", *product.ImgURL))
	mock.ExpectExec(q("DELETE FROM tb_product_category WHERE product_id = $1;")).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("INSERT INTO tb_product_category")).
		WithArgs(int64(1), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("JOIN tb_product_category")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "Livros"))
	mock.ExpectCommit()

	updated, err := store.UpdateProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Livros"}}, updated.Categories)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateProduct_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()
	product := newPlayStation()
	product.ID = 1000

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE tb_product")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.UpdateProduct(context.Background(), product)
	assert.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteProduct(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "deleted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(q("DELETE FROM tb_product WHERE id = $1;")).WithArgs(int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(q("DELETE FROM tb_product WHERE id = $1;")).WithArgs(int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrProductNotFound,
		},
		{
			name: "referenced by an order item",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(q("DELETE FROM tb_product WHERE id = $1;")).WithArgs(int64(5)).
					WillReturnError(fkViolation("fk_order_item_product"))
			},
			wantErr: ErrIntegrityViolation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, store := newMockDBAndStore(t)
			defer db.Close()
			tt.setup(mock)

			err := store.DeleteProduct(context.Background(), 5)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_DeleteProduct_OtherError(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	dbErr := errors.New("connection reset by peer")
	mock.ExpectExec(q("DELETE FROM tb_product")).WillReturnError(dbErr)

	err := store.DeleteProduct(context.Background(), 5)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrIntegrityViolation)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}
