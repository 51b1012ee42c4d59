package service

import (
	"context"
	"sort"

	"checkout-service/internal/models"
	"checkout-service/internal/store"
)

// memState is the durable state behind the fake store. WithTx hands out a
// deep copy and only swaps it in when the unit of work succeeds, so a
// failed transaction leaves the state untouched, like a real rollback.
type memState struct {
	carts        map[int64]*models.Cart
	cartLines    map[int64][]models.CartLine
	inventory    map[int64]int
	productBySKU map[string]int64
	orders       map[int64]*models.Order
	orderItems   map[int64][]models.OrderItem
	nextOrderID  int64
	nextItemID   int64
}

func newMemState() *memState {
	return &memState{
		carts:        make(map[int64]*models.Cart),
		cartLines:    make(map[int64][]models.CartLine),
		inventory:    make(map[int64]int),
		productBySKU: make(map[string]int64),
		orders:       make(map[int64]*models.Order),
		orderItems:   make(map[int64][]models.OrderItem),
		nextOrderID:  1,
		nextItemID:   1,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextOrderID = s.nextOrderID
	c.nextItemID = s.nextItemID
	for id, cart := range s.carts {
		cp := *cart
		c.carts[id] = &cp
	}
	for id, lines := range s.cartLines {
		c.cartLines[id] = append([]models.CartLine(nil), lines...)
	}
	for id, qty := range s.inventory {
		c.inventory[id] = qty
	}
	for sku, id := range s.productBySKU {
		c.productBySKU[sku] = id
	}
	for id, order := range s.orders {
		cp := *order
		c.orders[id] = &cp
	}
	for id, items := range s.orderItems {
		c.orderItems[id] = append([]models.OrderItem(nil), items...)
	}
	return c
}

// fakeStore implements the orderStore interface against memState
type fakeStore struct {
	state *memState

	// reduceConflict makes every ReduceStock fail, simulating stock
	// changing between the availability check and the decrement
	reduceConflict bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: newMemState()}
}

func (f *fakeStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	work := f.state.clone()
	if err := fn(&memTx{state: work, reduceConflict: f.reduceConflict}); err != nil {
		return err
	}
	f.state = work
	return nil
}

func (f *fakeStore) GetActiveCartByCustomer(_ context.Context, customerID int64) (*models.Cart, error) {
	for _, cart := range f.state.carts {
		if cart.CustomerID == customerID && cart.Status == models.CartStatusActive {
			cp := *cart
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetOrderByID(_ context.Context, orderID int64) (*models.Order, error) {
	order, ok := f.state.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), f.state.orderItems[orderID]...), nil
}

// memTx implements store.Tx against a working copy of memState
type memTx struct {
	state          *memState
	reduceConflict bool
}

func (t *memTx) GetCartForUpdate(_ context.Context, cartID int64) (*models.Cart, error) {
	cart, ok := t.state.carts[cartID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cart, nil
}

func (t *memTx) GetCartLines(_ context.Context, cartID int64) ([]models.CartLine, error) {
	lines := append([]models.CartLine(nil), t.state.cartLines[cartID]...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (t *memTx) UpdateCartStatus(_ context.Context, cartID int64, status models.CartStatus) error {
	cart, ok := t.state.carts[cartID]
	if !ok {
		return store.ErrNotFound
	}
	cart.Status = status
	return nil
}

func (t *memTx) LockInventory(_ context.Context, productID int64) (int, error) {
	available, ok := t.state.inventory[productID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return available, nil
}

func (t *memTx) ReduceStock(_ context.Context, productID int64, quantity int) error {
	if t.reduceConflict {
		return store.ErrInsufficientStock
	}
	available, ok := t.state.inventory[productID]
	if !ok {
		return store.ErrNotFound
	}
	if available < quantity {
		return store.ErrInsufficientStock
	}
	t.state.inventory[productID] = available - quantity
	return nil
}

func (t *memTx) RestoreStockBySKU(_ context.Context, sku string, quantity int) error {
	productID, ok := t.state.productBySKU[sku]
	if !ok {
		return store.ErrNotFound
	}
	t.state.inventory[productID] += quantity
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, order *models.Order) error {
	order.ID = t.state.nextOrderID
	t.state.nextOrderID++
	cp := *order
	t.state.orders[order.ID] = &cp
	return nil
}

func (t *memTx) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	item.ID = t.state.nextItemID
	t.state.nextItemID++
	t.state.orderItems[item.OrderID] = append(t.state.orderItems[item.OrderID], *item)
	return nil
}

func (t *memTx) GetOrderForUpdate(_ context.Context, orderID int64) (*models.Order, error) {
	order, ok := t.state.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return order, nil
}

func (t *memTx) UpdateOrderStatus(_ context.Context, orderID int64, status models.OrderStatus) error {
	order, ok := t.state.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	order.Status = status
	return nil
}

func (t *memTx) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), t.state.orderItems[orderID]...), nil
}

// fakeCache implements the orderCache interface in memory
type fakeCache struct {
	orders map[int64]cachedEntry
	idem   map[string]int64
}

type cachedEntry struct {
	order *models.Order
	items []models.OrderItem
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		orders: make(map[int64]cachedEntry),
		idem:   make(map[string]int64),
	}
}

func (c *fakeCache) GetCachedOrder(_ context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	entry, ok := c.orders[orderID]
	if !ok {
		return nil, nil, nil
	}
	return entry.order, entry.items, nil
}

func (c *fakeCache) CacheOrder(_ context.Context, order *models.Order, items []models.OrderItem) error {
	c.orders[order.ID] = cachedEntry{order: order, items: items}
	return nil
}

func (c *fakeCache) InvalidateOrder(_ context.Context, orderID int64) error {
	delete(c.orders, orderID)
	return nil
}

func (c *fakeCache) GetIdempotentOrderID(_ context.Context, key string) (int64, bool, error) {
	orderID, ok := c.idem[key]
	return orderID, ok, nil
}

func (c *fakeCache) SetIdempotentOrderID(_ context.Context, key string, orderID int64) error {
	c.idem[key] = orderID
	return nil
}

// fakePublisher implements the eventPublisher interface and records what
// was published
type fakePublisher struct {
	created   []*models.OrderCreatedEvent
	paid      []*models.OrderPaidEvent
	completed []*models.OrderCompletedEvent
	cancelled []*models.OrderCancelledEvent
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	p.created = append(p.created, event)
	return nil
}

func (p *fakePublisher) PublishOrderPaid(_ context.Context, event *models.OrderPaidEvent) error {
	p.paid = append(p.paid, event)
	return nil
}

func (p *fakePublisher) PublishOrderCompleted(_ context.Context, event *models.OrderCompletedEvent) error {
	p.completed = append(p.completed, event)
	return nil
}

func (p *fakePublisher) PublishOrderCancelled(_ context.Context, event *models.OrderCancelledEvent) error {
	p.cancelled = append(p.cancelled, event)
	return nil
}
