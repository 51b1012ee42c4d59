package store

import (
	"context"
	"database/sql"
	"errors"

	"checkout-service/internal/models"
)

// GetActiveCartByCustomer retrieves the customer's ACTIVE cart, if any.
func (s *Store) GetActiveCartByCustomer(ctx context.Context, customerID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart,
		"SELECT * FROM carts WHERE customer_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1",
		customerID, models.CartStatusActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartByID retrieves a cart by ID
func (s *Store) GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE id = $1", cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartForUpdate loads a cart under an exclusive row lock. Holding the
// lock keeps two concurrent checkouts of the same cart from both passing
// the ACTIVE guard.
func (t *sqlTx) GetCartForUpdate(ctx context.Context, cartID int64) (*models.Cart, error) {
	var cart models.Cart
	err := t.tx.GetContext(ctx, &cart, "SELECT * FROM carts WHERE id = $1 FOR UPDATE", cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartLines loads the cart's items joined with their current catalog
// products, ordered by product id so inventory locks are always acquired in
// the same order across concurrent checkouts.
func (t *sqlTx) GetCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := t.tx.SelectContext(ctx, &lines, `
		SELECT ci.product_id, p.sku, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id`, cartID)
	return lines, err
}

// UpdateCartStatus persists a cart status change
func (t *sqlTx) UpdateCartStatus(ctx context.Context, cartID int64, status models.CartStatus) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE carts SET status = $1, updated_at = NOW() WHERE id = $2",
		status, cartID)
	return err
}
