package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// checkoutService is the core contract consumed by the HTTP adapter
type checkoutService interface {
	ActiveCart(ctx context.Context, customerID int64) (*models.Cart, error)
	Checkout(ctx context.Context, cartID int64, idempotencyKey string) (*models.Order, []models.OrderItem, error)
	MarkAsPaid(ctx context.Context, orderID int64) (*models.Order, error)
	Complete(ctx context.Context, orderID int64) (*models.Order, error)
	Cancel(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error)
}

// catalogStore is the read-only catalog surface
type catalogStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetInventory(ctx context.Context, productID int64) (*models.Inventory, error)
}

// Handler contains HTTP handlers
type Handler struct {
	checkout checkoutService
	catalog  catalogStore
}

// NewHandler creates a new HTTP handler
func NewHandler(checkout checkoutService, catalog catalogStore) *Handler {
	return &Handler{
		checkout: checkout,
		catalog:  catalog,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", h.checkoutCart)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/pay", h.payOrder)
		v1.POST("/orders/:id/complete", h.completeOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
	}
}

// orderResponse is the wire shape of an order with its snapshot lines
type orderResponse struct {
	ID          int64               `json:"id"`
	Status      models.OrderStatus  `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
}

func toOrderResponse(order *models.Order, items []models.OrderItem) orderResponse {
	resp := orderResponse{
		ID:          order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductName:  item.ProductName,
			ProductSKU:   item.ProductSKU,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		})
	}
	return resp
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// checkoutCart checks out the authenticated customer's active cart
func (h *Handler) checkoutCart(c *gin.Context) {
	customerID, ok := authenticatedCustomer(c)
	if !ok {
		return
	}

	cart, err := h.checkout.ActiveCart(c.Request.Context(), customerID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Active cart not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	order, items, err := h.checkout.Checkout(c.Request.Context(), cart.ID, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order, items))
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, items, err := h.checkout.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, items))
}

// payOrder marks an order as paid
func (h *Handler) payOrder(c *gin.Context) {
	h.lifecycle(c, h.checkout.MarkAsPaid)
}

// completeOrder completes a paid order
func (h *Handler) completeOrder(c *gin.Context) {
	h.lifecycle(c, h.checkout.Complete)
}

// cancelOrder cancels a pending order and restores its stock
func (h *Handler) cancelOrder(c *gin.Context) {
	h.lifecycle(c, h.checkout.Cancel)
}

func (h *Handler) lifecycle(c *gin.Context, op func(ctx context.Context, orderID int64) (*models.Order, error)) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := op(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, nil))
}

// listProducts lists active catalog products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct returns a product with its current stock level
func (h *Handler) getProduct(c *gin.Context) {
	idStr := c.Param("id")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	inv, err := h.catalog.GetInventory(c.Request.Context(), productID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}

	resp := gin.H{"product": product}
	if inv != nil {
		resp["quantity_available"] = inv.QuantityAvailable
	}
	c.JSON(http.StatusOK, resp)
}

// authenticatedCustomer resolves the customer set by the auth collaborator
func authenticatedCustomer(c *gin.Context) (int64, bool) {
	customerID, err := strconv.ParseInt(c.GetHeader("X-Customer-ID"), 10, 64)
	if err != nil || customerID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid customer identity"})
		return 0, false
	}
	return customerID, true
}

func orderIDParam(c *gin.Context) (int64, bool) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return orderID, true
}

// respondError maps domain errors to HTTP statuses: request mistakes are
// 400, stock and lifecycle conflicts are 409, unknown rows are 404, and
// infrastructure failures stay 500.
func respondError(c *gin.Context, err error) {
	var derr *models.DomainError
	if errors.As(err, &derr) {
		switch derr.Code {
		case models.ErrCodeCartNotActive, models.ErrCodeEmptyCart:
			c.JSON(http.StatusBadRequest, gin.H{"error": derr.Error(), "code": derr.Code})
		case models.ErrCodeInsufficientStock:
			c.JSON(http.StatusConflict, gin.H{"error": derr.Error(), "code": derr.Code, "product_name": derr.ProductName})
		case models.ErrCodeInvalidTransition:
			c.JSON(http.StatusConflict, gin.H{"error": derr.Error(), "code": derr.Code, "status": derr.Status, "event": derr.Event})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": derr.Error()})
		}
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
