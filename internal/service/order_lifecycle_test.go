package service

import (
	"context"
	"testing"

	"checkout-service/internal/models"
	"checkout-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutOrder(t *testing.T, svc *CheckoutService) *models.Order {
	t.Helper()
	order, _, err := svc.Checkout(context.Background(), testCartID, "")
	require.NoError(t, err)
	return order
}

func TestMarkAsPaid(t *testing.T) {
	svc, _, _, pub := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	paid, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	assert.Len(t, pub.paid, 1)
}

func TestMarkAsPaidIsIdempotent(t *testing.T) {
	svc, _, _, pub := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	first, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, first.Status)

	// a replayed payment webhook must not error and must not re-publish
	second, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, second.Status)
	assert.Len(t, pub.paid, 1)
}

func TestMarkAsPaidOnCompletedOrderIsNoop(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	_, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), order.ID)
	require.NoError(t, err)

	got, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
}

func TestMarkAsPaidOrderNotFound(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()

	_, err := svc.MarkAsPaid(context.Background(), 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompleteRequiresPaid(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	_, err := svc.Complete(context.Background(), order.ID)

	var derr *models.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, models.ErrCodeInvalidTransition, derr.Code)
	assert.Equal(t, models.OrderStatusPending, derr.Status)
	assert.Equal(t, "complete", derr.Event)
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc, _, _, pub := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	_, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)

	first, err := svc.Complete(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, first.Status)

	second, err := svc.Complete(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, second.Status)
	assert.Len(t, pub.completed, 1)
}

func TestCancelRestoresStock(t *testing.T) {
	svc, st, _, pub := newCheckoutFixture()
	order := checkoutOrder(t, svc)
	require.Equal(t, 8, st.state.inventory[testProductID])

	cancelled, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, st.state.inventory[testProductID])
	assert.Len(t, pub.cancelled, 1)
}

func TestCancelIsIdempotent(t *testing.T) {
	svc, st, _, pub := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	_, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)

	// a second cancel is a no-op: no error, no double restoration
	again, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, again.Status)
	assert.Equal(t, 10, st.state.inventory[testProductID])
	assert.Len(t, pub.cancelled, 1)
}

func TestCancelPaidOrderRejected(t *testing.T) {
	svc, st, _, _ := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	_, err := svc.MarkAsPaid(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), order.ID)

	var derr *models.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, models.ErrCodeInvalidTransition, derr.Code)
	assert.Equal(t, models.OrderStatusPaid, derr.Status)
	assert.Equal(t, "cancel", derr.Event)

	// rejected cancel restores nothing
	assert.Equal(t, 8, st.state.inventory[testProductID])
}

func TestCancelAfterProductRenameRestoresBySKU(t *testing.T) {
	svc, st, _, _ := newCheckoutFixture()
	order := checkoutOrder(t, svc)

	// the catalog product is renamed after checkout; the sku mapping is
	// what restoration depends on
	st.state.cartLines[testCartID][0].ProductName = "Sepatu Lari X - New Name"

	_, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, st.state.inventory[testProductID])
}

func TestCancelMultiLineRestoresEveryLine(t *testing.T) {
	svc, st, _, _ := newCheckoutFixture()
	st.state.cartLines[testCartID] = append(st.state.cartLines[testCartID], models.CartLine{
		ProductID:    2,
		ProductSKU:   "SKU-002",
		ProductName:  "Kaos Polos",
		ProductPrice: st.state.cartLines[testCartID][0].ProductPrice,
		Quantity:     3,
	})
	st.state.inventory[2] = 5
	st.state.productBySKU["SKU-002"] = 2

	order := checkoutOrder(t, svc)
	require.Equal(t, 8, st.state.inventory[testProductID])
	require.Equal(t, 2, st.state.inventory[2])

	_, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, st.state.inventory[testProductID])
	assert.Equal(t, 5, st.state.inventory[2])
}
