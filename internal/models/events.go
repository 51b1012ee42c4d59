package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderPaid      = "ORDER_PAID"
	EventTypeOrderCompleted = "ORDER_COMPLETED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"

	// EventTypePaymentSucceeded is published by the external payment
	// collaborator once a charge clears; it drives the mark-as-paid flow.
	EventTypePaymentSucceeded = "PAYMENT_SUCCEEDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData represents a snapshot line as carried in events
type OrderItemData struct {
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
}

// OrderCreatedEvent published after a checkout commits
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	CustomerID  int64           `json:"customer_id"`
	CartID      int64           `json:"cart_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderPaidEvent published when an order transitions to PAID
type OrderPaidEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	CustomerID  int64           `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderCompletedEvent published when an order transitions to COMPLETED
type OrderCompletedEvent struct {
	BaseEvent
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
}

// OrderCancelledEvent published when an order is cancelled and its stock
// has been restored
type OrderCancelledEvent struct {
	BaseEvent
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
}

// PaymentSucceededEvent consumed from the payment collaborator
type PaymentSucceededEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	TxID    string `json:"tx_id"`
}
