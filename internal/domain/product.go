package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Prices go out as JSON numbers (1250.0), not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category represents a product category in the system.
// Categories are reference data: the service only reads them.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product represents a product in the catalog.
// The json tags correspond to the fields expected in API responses/requests.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImgURL      *string         `json:"img_url,omitempty"` // Pointer for nullable fields
	Categories  []Category      `json:"categories"`
}

// ProductMin is the reduced product view returned by catalog searches.
type ProductMin struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	ImgURL *string         `json:"img_url,omitempty"`
}

// Min returns the reduced view of p.
func (p Product) Min() ProductMin {
	return ProductMin{ID: p.ID, Name: p.Name, Price: p.Price, ImgURL: p.ImgURL}
}

// CategoryIDs returns the ids of the categories attached to p, in order.
func (p Product) CategoryIDs() []int64 {
	ids := make([]int64, len(p.Categories))
	for i, c := range p.Categories {
		ids[i] = c.ID
	}
	return ids
}
