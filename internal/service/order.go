package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/store"
)

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// OrderInput is a checkout request. An empty item list is accepted.
type OrderInput struct {
	Items []OrderItemInput `json:"items" validate:"dive"`
}

// OrderUpdateInput carries the fields an administrator may overwrite.
type OrderUpdateInput struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=WAITING_PAYMENT PAID SHIPPED DELIVERED CANCELED"`
	Moment time.Time          `json:"moment" validate:"required"`
}

// OrderService is the order placement and authorization workflow.
type OrderService struct {
	orders   store.OrderStorer
	validate *validator.Validate
	now      func() time.Time
}

func NewOrderService(orders store.OrderStorer) *OrderService {
	return &OrderService{
		orders:   orders,
		validate: newValidator(),
		now:      time.Now,
	}
}

// FindByID returns the order if the caller is an admin or owns it.
func (s *OrderService) FindByID(ctx context.Context, caller auth.Caller, id int64) (*domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, mapOrderError(err, id)
	}
	if err := auth.Authorize(order.Client.ID, caller); err != nil {
		return nil, err
	}
	return order, nil
}

// Insert places an order for the caller. Each item's unit price is captured
// from the product by the store, in the transaction that writes the order.
func (s *OrderService) Insert(ctx context.Context, caller auth.Caller, input OrderInput) (*domain.Order, error) {
	if err := auth.RequireAnyRole(caller, domain.RoleAdmin, domain.RoleClient); err != nil {
		return nil, err
	}
	if err := s.validateItems(input); err != nil {
		return nil, err
	}

	order := &domain.Order{
		Moment: s.now().UTC(),
		Status: domain.StatusWaitingPayment,
		Client: domain.Client{ID: caller.ID},
		Items:  make([]domain.OrderItem, 0, len(input.Items)),
	}
	for _, in := range input.Items {
		order.Items = append(order.Items, domain.OrderItem{ProductID: in.ProductID, Quantity: in.Quantity})
	}

	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, mapOrderError(err, 0)
	}
	return created, nil
}

// Update overwrites status and moment of an existing order. Admin only.
func (s *OrderService) Update(ctx context.Context, caller auth.Caller, id int64, input OrderUpdateInput) (*domain.Order, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, input).orNil(); err != nil {
		return nil, err
	}

	updated, err := s.orders.UpdateOrder(ctx, &domain.Order{
		ID:     id,
		Status: input.Status,
		Moment: input.Moment.UTC(),
	})
	if err != nil {
		return nil, mapOrderError(err, id)
	}
	return updated, nil
}

// Delete removes an order. Admin only.
func (s *OrderService) Delete(ctx context.Context, caller auth.Caller, id int64) error {
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return mapOrderError(err, id)
	}
	return nil
}

// validateItems checks every line and rejects a product listed twice,
// since (order, product) is the item key.
func (s *OrderService) validateItems(input OrderInput) error {
	verr := validateStruct(s.validate, input)
	seen := make(map[int64]bool, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID <= 0 {
			continue
		}
		if seen[item.ProductID] {
			verr.add(fmt.Sprintf("items[%d].product_id", i), "Product already listed in this order.")
		}
		seen[item.ProductID] = true
	}
	return verr.orNil()
}

func mapOrderError(err error, id int64) error {
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		return notFound("order", id)
	case errors.Is(err, store.ErrProductNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, store.ErrIntegrityViolation):
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	default:
		return fmt.Errorf("service: order operation failed: %w", err)
	}
}
