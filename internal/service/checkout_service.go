package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderStore is the persistence surface the service needs: a transactional
// unit-of-work runner plus the read paths used outside transactions.
type orderStore interface {
	WithTx(ctx context.Context, fn func(tx store.Tx) error) error
	GetActiveCartByCustomer(ctx context.Context, customerID int64) (*models.Cart, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// orderCache is the read cache and idempotency-key store
type orderCache interface {
	GetCachedOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error)
	CacheOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	InvalidateOrder(ctx context.Context, orderID int64) error
	GetIdempotentOrderID(ctx context.Context, key string) (int64, bool, error)
	SetIdempotentOrderID(ctx context.Context, key string, orderID int64) error
}

// eventPublisher publishes committed domain events
type eventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
}

// CheckoutService converts active carts into orders and drives the order
// lifecycle. Every public operation runs as one atomic unit of work: it
// either commits in full or leaves no durable effect.
type CheckoutService struct {
	store  orderStore
	cache  orderCache
	events eventPublisher
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(st orderStore, cache orderCache, events eventPublisher) *CheckoutService {
	return &CheckoutService{
		store:  st,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// ActiveCart resolves the customer's ACTIVE cart
func (s *CheckoutService) ActiveCart(ctx context.Context, customerID int64) (*models.Cart, error) {
	return s.store.GetActiveCartByCustomer(ctx, customerID)
}

// Checkout converts the cart into a PENDING order inside one transaction:
// validate the cart, check availability for every line under row locks,
// compute the total at current catalog prices, create the order and its
// immutable item snapshots, reduce stock, and flip the cart to CHECKED_OUT.
// Any failure rolls the whole thing back; there is no observable state with
// an order but unreduced stock, or reduced stock but no order.
func (s *CheckoutService) Checkout(ctx context.Context, cartID int64, idempotencyKey string) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if idempotencyKey != "" {
		orderID, found, err := s.cache.GetIdempotentOrderID(ctx, idempotencyKey)
		if err != nil {
			s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		} else if found {
			s.logger.Info("Duplicate checkout request detected",
				zap.String("idempotency_key", idempotencyKey),
				zap.Int64("order_id", orderID))
			return s.GetOrder(ctx, orderID)
		}
	}

	var (
		order *models.Order
		items []models.OrderItem
	)

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		cart, err := tx.GetCartForUpdate(ctx, cartID)
		if err != nil {
			return err
		}
		if cart.Status != models.CartStatusActive {
			return models.ErrCartNotActive()
		}

		// lines come back ordered by product id, so concurrent checkouts
		// acquire contested inventory locks in the same order
		lines, err := tx.GetCartLines(ctx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return models.ErrEmptyCart()
		}

		for _, line := range lines {
			available, err := tx.LockInventory(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if available < line.Quantity {
				return models.ErrInsufficientStock(line.ProductName)
			}
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(line.ProductPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order = &models.Order{
			CustomerID:  cart.CustomerID,
			Status:      models.OrderStatusPending,
			TotalAmount: total,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		items = make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			item := models.OrderItem{
				OrderID:      order.ID,
				ProductName:  normalizeProductName(line.ProductName),
				ProductSKU:   line.ProductSKU,
				ProductPrice: line.ProductPrice,
				Quantity:     line.Quantity,
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return err
			}
			items = append(items, item)
		}

		// the rows are still locked from the availability check, but the
		// guarded decrement re-verifies sufficiency; a conflict here aborts
		// the whole transaction
		for _, line := range lines {
			if err := tx.ReduceStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, store.ErrInsufficientStock) {
					return models.ErrInsufficientStock(line.ProductName)
				}
				return err
			}
		}

		return tx.UpdateCartStatus(ctx, cartID, models.CartStatusCheckedOut)
	})
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, nil, err
	}

	util.CheckoutsTotal.Inc()
	s.logger.Info("Checkout completed",
		zap.Int64("cart_id", cartID),
		zap.Int64("order_id", order.ID),
		zap.String("total_amount", order.TotalAmount.String()))

	if idempotencyKey != "" {
		if err := s.cache.SetIdempotentOrderID(ctx, idempotencyKey, order.ID); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderCreated),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		CartID:      cartID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems(items),
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return order, items, nil
}

// GetOrder retrieves an order with its snapshot items, cache first
func (s *CheckoutService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	if order, items, err := s.cache.GetCachedOrder(ctx, orderID); err == nil && order != nil {
		return order, items, nil
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.cache.CacheOrder(ctx, order, items); err != nil {
		s.logger.Warn("Failed to cache order", zap.Int64("order_id", orderID), zap.Error(err))
	}

	return order, items, nil
}

// normalizeProductName collapses runs of whitespace to a single space and
// trims the ends. Applied to the snapshotted name only; sku and price are
// copied verbatim.
func normalizeProductName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// failureReason labels a checkout failure for metrics
func failureReason(err error) string {
	var derr *models.DomainError
	if errors.As(err, &derr) {
		return strings.ToLower(string(derr.Code))
	}
	if errors.Is(err, store.ErrNotFound) {
		return "not_found"
	}
	return "db_error"
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func eventItems(items []models.OrderItem) []models.OrderItemData {
	data := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.OrderItemData{
			ProductName:  item.ProductName,
			ProductSKU:   item.ProductSKU,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		})
	}
	return data
}
