package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"commerce-service/internal/domain"
)

// --- ProductStorer Implementation ---

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO tb_product (name, description, price, img_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, img_url;
	`
	var created domain.Product
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			product.Name, product.Description, product.Price, product.ImgURL,
		).Scan(&created.ID, &created.Name, &created.Description, &created.Price, &created.ImgURL)
		if err != nil {
			return fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
		}
		if err := insertProductCategories(ctx, tx, created.ID, product.CategoryIDs()); err != nil {
			return err
		}
		created.Categories, err = productCategories(ctx, tx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, img_url
		FROM tb_product
		WHERE id = $1;
	`
	var product domain.Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price, &product.ImgURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}

	product.Categories, err = productCategories(ctx, s.db, product.ID)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns one page of products whose name contains params.Name,
// ignoring case. Categories are not loaded for list results.
func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	searchTerm := "%" + params.Name + "%"

	countQuery := `SELECT COUNT(*) FROM tb_product WHERE name ILIKE $1;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, searchTerm).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to count products: %w", err)
	}

	if totalCount == 0 {
		return []domain.Product{}, 0, nil
	}

	sortColumn := "id" // Default sort
	allowedSortColumns := map[string]string{
		"id":    "id",
		"name":  "name",
		"price": "price",
	}
	if col, ok := allowedSortColumns[strings.ToLower(params.SortBy)]; ok {
		sortColumn = col
	}

	sortOrder := "ASC" // Default order
	if strings.ToUpper(params.SortOrder) == "DESC" {
		sortOrder = "DESC"
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, name, description, price, img_url
		FROM tb_product
		WHERE name ILIKE $1
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3;`, sortColumn, sortOrder)

	rows, err := s.db.QueryContext(ctx, dataQuery, searchTerm, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.Limit)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImgURL); err != nil {
			return nil, 0, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}

	return products, totalCount, nil
}

// UpdateProduct overwrites the product row and replaces its whole category set.
func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE tb_product
		SET name = $1, description = $2, price = $3, img_url = $4
		WHERE id = $5
		RETURNING id, name, description, price, img_url;
	`
	var updated domain.Product
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			product.Name, product.Description, product.Price, product.ImgURL, product.ID,
		).Scan(&updated.ID, &updated.Name, &updated.Description, &updated.Price, &updated.ImgURL)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			return fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tb_product_category WHERE product_id = $1;`, updated.ID); err != nil {
			return fmt.Errorf("store: UpdateProduct failed to clear categories: %w", err)
		}
		if err := insertProductCategories(ctx, tx, updated.ID, product.CategoryIDs()); err != nil {
			return err
		}
		updated.Categories, err = productCategories(ctx, tx, updated.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a product. A product still referenced by order items
// yields ErrIntegrityViolation and is left in place.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM tb_product WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		if mapped := mapIntegrityError(err); errors.Is(mapped, ErrIntegrityViolation) {
			return mapped
		}
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func insertProductCategories(ctx context.Context, q querier, productID int64, categoryIDs []int64) error {
	query := `INSERT INTO tb_product_category (product_id, category_id) VALUES ($1, $2);`
	for _, categoryID := range categoryIDs {
		if _, err := q.ExecContext(ctx, query, productID, categoryID); err != nil {
			if mapped := mapIntegrityError(err); errors.Is(mapped, ErrIntegrityViolation) {
				return mapped
			}
			return fmt.Errorf("store: failed to link product %d to category %d: %w", productID, categoryID, err)
		}
	}
	return nil
}

func productCategories(ctx context.Context, q querier, productID int64) ([]domain.Category, error) {
	query := `
		SELECT c.id, c.name
		FROM tb_category c
		JOIN tb_product_category pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.id ASC;
	`
	rows, err := q.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query categories of product %d: %w", productID, err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("store: failed to scan category of product %d: %w", productID, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: category iteration error for product %d: %w", productID, err)
	}
	return categories, nil
}
