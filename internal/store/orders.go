package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"commerce-service/internal/domain"
)

// --- OrderStorer Implementation ---

// CreateOrder inserts the order row and every item row in a single
// transaction, then reloads the detail from the same transaction. Each unit
// price is read from the product row under a share lock inside the
// transaction; prices set on the incoming items are ignored.
func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	orderQuery := `
		INSERT INTO tb_order (moment, status, client_id)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	priceQuery := `SELECT price FROM tb_product WHERE id = $1 FOR SHARE;`
	itemQuery := `
		INSERT INTO tb_order_item (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4);
	`
	var created *domain.Order
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		var orderID int64
		err := tx.QueryRowContext(ctx, orderQuery, order.Moment, string(order.Status), order.Client.ID).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("store: CreateOrder failed to insert order: %w", mapIntegrityError(err))
		}
		for _, item := range order.Items {
			var price decimal.Decimal
			if err := tx.QueryRowContext(ctx, priceQuery, item.ProductID).Scan(&price); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
				}
				return fmt.Errorf("store: CreateOrder failed to read price of product %d: %w", item.ProductID, err)
			}
			if _, err := tx.ExecContext(ctx, itemQuery, orderID, item.ProductID, item.Quantity, price); err != nil {
				return fmt.Errorf("store: CreateOrder failed to insert item for product %d: %w", item.ProductID, mapIntegrityError(err))
			}
		}
		created, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrderByID reads the order, its payment and its items from one
// read-only snapshot.
func (s *PostgresStore) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.withTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		var err error
		order, err = loadOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrder overwrites status and moment. Items and payment are untouched.
func (s *PostgresStore) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	query := `
		UPDATE tb_order
		SET status = $1, moment = $2
		WHERE id = $3;
	`
	var updated *domain.Order
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, string(order.Status), order.Moment, order.ID)
		if err != nil {
			return fmt.Errorf("store: UpdateOrder failed to execute update: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: UpdateOrder failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrOrderNotFound
		}
		updated, err = loadOrder(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOrder removes an order. Items and payments do not cascade, so an
// order that still has them yields ErrIntegrityViolation.
func (s *PostgresStore) DeleteOrder(ctx context.Context, id int64) error {
	query := `DELETE FROM tb_order WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		if mapped := mapIntegrityError(err); errors.Is(mapped, ErrIntegrityViolation) {
			return mapped
		}
		return fmt.Errorf("store: DeleteOrder failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func loadOrder(ctx context.Context, q querier, id int64) (*domain.Order, error) {
	orderQuery := `
		SELECT o.id, o.moment, o.status, u.id, u.name
		FROM tb_order o
		JOIN tb_user u ON u.id = o.client_id
		WHERE o.id = $1;
	`
	var order domain.Order
	var status string
	err := q.QueryRowContext(ctx, orderQuery, id).Scan(
		&order.ID, &order.Moment, &status, &order.Client.ID, &order.Client.Name,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: failed to scan order %d: %w", id, err)
	}
	order.Status = domain.OrderStatus(status)

	paymentQuery := `SELECT order_id, moment FROM tb_payment WHERE order_id = $1;`
	var payment domain.Payment
	err = q.QueryRowContext(ctx, paymentQuery, id).Scan(&payment.ID, &payment.Moment)
	switch {
	case err == nil:
		order.Payment = &payment
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("store: failed to scan payment of order %d: %w", id, err)
	}

	itemsQuery := `
		SELECT i.product_id, p.name, p.img_url, i.quantity, i.price
		FROM tb_order_item i
		JOIN tb_product p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.product_id ASC;
	`
	rows, err := q.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query items of order %d: %w", id, err)
	}
	defer rows.Close()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.ImgURL, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("store: failed to scan item of order %d: %w", id, err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: item iteration error for order %d: %w", id, err)
	}
	return &order, nil
}
