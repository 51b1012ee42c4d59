package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-service/internal/models"
)

// GetInventory retrieves the inventory row for a product
func (s *Store) GetInventory(ctx context.Context, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE product_id = $1", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// LockInventory takes an exclusive lock on the product's inventory row and
// returns the quantity available at lock time. The lock is held until the
// transaction ends, so a quantity observed here stays valid through any
// later ReduceStock in the same unit of work.
func (t *sqlTx) LockInventory(ctx context.Context, productID int64) (int, error) {
	var available int
	err := t.tx.GetContext(ctx, &available,
		"SELECT quantity_available FROM inventory WHERE product_id = $1 FOR UPDATE", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock inventory: %w", err)
	}
	return available, nil
}

// ReduceStock decrements quantity_available by quantity. The WHERE guard
// re-checks sufficiency inside the database, so the invariant
// quantity_available >= 0 holds even if the row changed since an earlier
// availability check.
func (t *sqlTx) ReduceStock(ctx context.Context, productID int64, quantity int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity_available = quantity_available - $1, updated_at = NOW()
		WHERE product_id = $2 AND quantity_available >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to reduce stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStockBySKU increments quantity_available for the inventory row
// resolved through the product's immutable sku. Resolution by sku keeps
// restoration working after the product has been renamed or repriced since
// the order was placed.
func (t *sqlTx) RestoreStockBySKU(ctx context.Context, sku string, quantity int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity_available = quantity_available + $1, updated_at = NOW()
		FROM products
		WHERE inventory.product_id = products.id AND products.sku = $2`,
		quantity, sku)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("restore stock for sku %s: %w", sku, ErrNotFound)
	}
	return nil
}
