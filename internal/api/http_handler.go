package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	orders     *service.OrderService
	products   *service.ProductService
	categories *service.CategoryService
	authn      auth.Authenticator
	health     *HealthReporter
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
// health may be nil, in which case /healthz is not registered.
func NewHTTPHandler(
	orders *service.OrderService,
	products *service.ProductService,
	categories *service.CategoryService,
	authn auth.Authenticator,
	health *HealthReporter,
) *HTTPHandler {
	return &HTTPHandler{
		orders:     orders,
		products:   products,
		categories: categories,
		authn:      authn,
		health:     health,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Errors []service.FieldError `json:"errors,omitempty"` // Per-field validation failures
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	if payload == nil { // No body for 204 No Content
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("ERROR: Failed to encode JSON response: %v", err)
	}
}

// respondWithServiceError maps the workflow error taxonomy onto HTTP statuses.
func respondWithServiceError(w http.ResponseWriter, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Invalid data", Errors: verr.Errors})
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		respondWithError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
	case errors.Is(err, auth.ErrForbidden):
		respondWithError(w, http.StatusForbidden, auth.ErrForbidden.Error())
	case errors.Is(err, service.ErrIntegrity):
		log.Printf("WARN: %s rejected: %v", action, err)
		respondWithError(w, http.StatusBadRequest, service.ErrIntegrity.Error())
	default:
		log.Printf("ERROR: %s failed: %v", action, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func parseID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func location(r *http.Request, id int64) string {
	return fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), id)
}

// --- Category Handlers ---

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "retrieve categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseID(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categories.FindByID(r.Context(), categoryID)
	if err != nil {
		respondWithServiceError(w, err, "retrieve category")
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

// --- Product Handlers ---

// PaginationInfo describes where a page sits in the full result set.
type PaginationInfo struct {
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
}

// ProductPageResponse is the body of GET /products.
type ProductPageResponse struct {
	Content    []domain.ProductMin `json:"content"`
	Pagination PaginationInfo      `json:"pagination"`
}

// parsePageRequest reads page (zero-based), size and sort ("field" or
// "field,asc|desc") from the query string.
func parsePageRequest(r *http.Request) (service.PageRequest, error) {
	q := r.URL.Query()
	req := service.PageRequest{Page: 0, Size: defaultPageSize}

	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 0 {
			return req, fmt.Errorf("invalid page value %q", s)
		}
		req.Page = page
	}
	if s := q.Get("size"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size <= 0 {
			return req, fmt.Errorf("invalid size value %q", s)
		}
		req.Size = min(size, maxPageSize)
	}
	if s := q.Get("sort"); s != "" {
		field, order, _ := strings.Cut(s, ",")
		allowedSortFields := map[string]bool{"id": true, "name": true, "price": true}
		if !allowedSortFields[strings.ToLower(field)] {
			return req, fmt.Errorf("invalid sort field %q, allowed: id, name, price", field)
		}
		if order != "" && !strings.EqualFold(order, "asc") && !strings.EqualFold(order, "desc") {
			return req, fmt.Errorf("invalid sort order %q, allowed: asc, desc", order)
		}
		req.SortBy, req.SortOrder = field, order
	}
	if req.Page > math.MaxInt/req.Size {
		return req, fmt.Errorf("page %d is too large for size %d", req.Page, req.Size)
	}
	return req, nil
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.products.FindAll(r.Context(), r.URL.Query().Get("name"), pageReq)
	if err != nil {
		respondWithServiceError(w, err, "retrieve products")
		return
	}

	respondWithJSON(w, http.StatusOK, ProductPageResponse{
		Content: page.Content,
		Pagination: PaginationInfo{
			Page:          page.Page,
			Size:          page.Size,
			TotalElements: page.TotalElements,
			TotalPages:    page.TotalPages,
		},
	})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.products.FindByID(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	created, err := h.products.Insert(r.Context(), callerFrom(r), input)
	if err != nil {
		respondWithServiceError(w, err, "create product")
		return
	}

	w.Header().Set("Location", location(r, created.ID))
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input service.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.products.Update(r.Context(), callerFrom(r), productID, input)
	if err != nil {
		respondWithServiceError(w, err, "update product")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.products.Delete(r.Context(), callerFrom(r), productID); err != nil {
		respondWithServiceError(w, err, "delete product")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Order Handlers ---

// OrderItemResponse is one line of an order as returned to clients.
type OrderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImgURL    *string         `json:"img_url,omitempty"`
	SubTotal  decimal.Decimal `json:"sub_total"`
}

// OrderResponse is the order detail returned to clients.
type OrderResponse struct {
	ID      int64               `json:"id"`
	Moment  time.Time           `json:"moment"`
	Status  domain.OrderStatus  `json:"status"`
	Client  domain.Client       `json:"client"`
	Payment *domain.Payment     `json:"payment"`
	Items   []OrderItemResponse `json:"items"`
	Total   decimal.Decimal     `json:"total"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ImgURL:    item.ImgURL,
			SubTotal:  item.SubTotal(),
		}
	}
	return OrderResponse{
		ID:      o.ID,
		Moment:  o.Moment,
		Status:  o.Status,
		Client:  o.Client,
		Payment: o.Payment,
		Items:   items,
		Total:   o.Total(),
	}
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseID(r, "orderId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.orders.FindByID(r.Context(), callerFrom(r), orderID)
	if err != nil {
		respondWithServiceError(w, err, "retrieve order")
		return
	}
	respondWithJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input service.OrderInput
	if !decodeJSON(w, r, &input) {
		return
	}

	created, err := h.orders.Insert(r.Context(), callerFrom(r), input)
	if err != nil {
		respondWithServiceError(w, err, "create order")
		return
	}

	w.Header().Set("Location", location(r, created.ID))
	respondWithJSON(w, http.StatusCreated, newOrderResponse(created))
}

func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseID(r, "orderId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var input service.OrderUpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.orders.Update(r.Context(), callerFrom(r), orderID, input)
	if err != nil {
		respondWithServiceError(w, err, "update order")
		return
	}
	respondWithJSON(w, http.StatusOK, newOrderResponse(updated))
}

func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseID(r, "orderId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	if err := h.orders.Delete(r.Context(), callerFrom(r), orderID); err != nil {
		respondWithServiceError(w, err, "delete order")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Health ---

func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if !h.health.Check(ctx) {
		dbStatus = "unhealthy"
	}
	// Always 200, the payload carries the detailed status.
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	if h.health != nil {
		r.Get("/healthz", h.Healthz)
	}

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)              // GET /categories
		r.Get("/{categoryId}", h.GetCategoryByID) // GET /categories/{categoryId}
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)              // GET /products?name=&page=&size=&sort=
		r.Get("/{productId}", h.GetProductByID) // GET /products/{productId}

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuthentication)
			r.Post("/", h.CreateProduct)              // POST /products
			r.Put("/{productId}", h.UpdateProduct)    // PUT /products/{productId}
			r.Delete("/{productId}", h.DeleteProduct) // DELETE /products/{productId}
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.RequireAuthentication)
		r.Post("/", h.CreateOrder)            // POST /orders
		r.Get("/{orderId}", h.GetOrderByID)   // GET /orders/{orderId}
		r.Put("/{orderId}", h.UpdateOrder)    // PUT /orders/{orderId}
		r.Delete("/{orderId}", h.DeleteOrder) // DELETE /orders/{orderId}
	})
}
