package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusWaitingPayment OrderStatus = "WAITING_PAYMENT"
	StatusPaid           OrderStatus = "PAID"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCanceled       OrderStatus = "CANCELED"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusWaitingPayment, StatusPaid, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// Client is the owning user of an order as seen from the order.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Payment confirms an order. Its ID is the ID of the order it pays.
type Payment struct {
	ID     int64     `json:"id"`
	Moment time.Time `json:"moment"`
}

// OrderItem is one line of an order. Price is the unit price captured when
// the order was placed and is never re-read from the catalog.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	ImgURL    *string         `json:"img_url,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// SubTotal is quantity times the captured unit price.
func (i OrderItem) SubTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed order with its items and optional payment.
type Order struct {
	ID      int64       `json:"id"`
	Moment  time.Time   `json:"moment"`
	Status  OrderStatus `json:"status"`
	Client  Client      `json:"client"`
	Payment *Payment    `json:"payment,omitempty"`
	Items   []OrderItem `json:"items"`
}

// Total sums the sub-totals of all items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.SubTotal())
	}
	return total
}
