package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock indicates a guarded decrement would take
	// quantity_available below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Tx is the row-level surface available inside one unit of work. Every
// *ForUpdate and stock operation takes an exclusive row lock that is held
// until the enclosing transaction commits or rolls back; locks are never
// released mid-flow.
type Tx interface {
	GetCartForUpdate(ctx context.Context, cartID int64) (*models.Cart, error)
	GetCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error)
	UpdateCartStatus(ctx context.Context, cartID int64, status models.CartStatus) error

	LockInventory(ctx context.Context, productID int64) (int, error)
	ReduceStock(ctx context.Context, productID int64, quantity int) error
	RestoreStockBySKU(ctx context.Context, sku string, quantity int) error

	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrderForUpdate(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// WithTx runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back in full otherwise, so a
// failure at any step leaves zero durable effect.
func (s *Store) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqlTx implements Tx on top of a live *sqlx.Tx.
type sqlTx struct {
	tx *sqlx.Tx
}
