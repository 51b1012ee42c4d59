package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a shop customer (resolved by the auth collaborator)
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID         int64           `db:"id" json:"id"`
	SKU        string          `db:"sku" json:"sku"`
	Name       string          `db:"name" json:"name"`
	Price      decimal.Decimal `db:"price" json:"price"`
	CategoryID int64           `db:"category_id" json:"category_id"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Inventory represents product stock, one row per product.
// QuantityAvailable never goes below zero; every decrement is guarded.
type Inventory struct {
	ProductID         int64     `db:"product_id" json:"product_id"`
	QuantityAvailable int       `db:"quantity_available" json:"quantity_available"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// CartStatus is the lifecycle status of a cart
type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

func (s CartStatus) String() string {
	return string(s)
}

// Cart represents a customer's in-progress selection.
// A cart is created ACTIVE and becomes CHECKED_OUT exactly once, as the
// terminal step of a successful checkout. It never reverts.
type Cart struct {
	ID         int64      `db:"id" json:"id"`
	CustomerID int64      `db:"customer_id" json:"customer_id"`
	Status     CartStatus `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// CartItem is a single cart line. (cart_id, product_id) is unique.
type CartItem struct {
	ID        int64 `db:"id" json:"id"`
	CartID    int64 `db:"cart_id" json:"cart_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// CartLine is a cart item joined with its current catalog product,
// as loaded inside the checkout transaction.
type CartLine struct {
	ProductID    int64           `db:"product_id"`
	ProductSKU   string          `db:"sku"`
	ProductName  string          `db:"name"`
	ProductPrice decimal.Decimal `db:"price"`
	Quantity     int             `db:"quantity"`
}

// OrderStatus is the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order represents a customer order. TotalAmount is computed once at
// checkout and never recomputed.
type Order struct {
	ID          int64           `db:"id" json:"id"`
	CustomerID  int64           `db:"customer_id" json:"customer_id"`
	Status      OrderStatus     `db:"status" json:"status"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a frozen snapshot of a catalog product at checkout time.
// It is the audit record: later renames, price changes or deletions of the
// product never touch it. Stock restoration on cancel resolves the current
// inventory row through ProductSKU, never through the display name.
type OrderItem struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	ProductSKU   string          `db:"product_sku" json:"product_sku"`
	ProductPrice decimal.Decimal `db:"product_price" json:"product_price"`
	Quantity     int             `db:"quantity" json:"quantity"`
}
