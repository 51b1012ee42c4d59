package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"checkout-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client is a read cache and idempotency-key store. It is never a stock
// authority: the database row lock is the only inventory ledger.
type Client struct {
	rdb      *redis.Client
	orderTTL time.Duration
	idemTTL  time.Duration
}

// cachedOrder is the JSON envelope stored per order
type cachedOrder struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, orderTTL, idemTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, orderTTL: orderTTL, idemTTL: idemTTL}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

// GetCachedOrder retrieves a cached order with its items. A cache miss
// returns (nil, nil, nil).
func (c *Client) GetCachedOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	raw, err := c.rdb.Get(ctx, orderKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var cached cachedOrder
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, nil, fmt.Errorf("failed to decode cached order: %w", err)
	}
	return cached.Order, cached.Items, nil
}

// CacheOrder stores an order with its items under the configured TTL
func (c *Client) CacheOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	raw, err := json.Marshal(cachedOrder{Order: order, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	return c.rdb.Set(ctx, orderKey(order.ID), raw, c.orderTTL).Err()
}

// InvalidateOrder drops the cached entry after a lifecycle transition
func (c *Client) InvalidateOrder(ctx context.Context, orderID int64) error {
	return c.rdb.Del(ctx, orderKey(orderID)).Err()
}

// GetIdempotentOrderID resolves a checkout idempotency key to the order it
// previously created, if the key is still live.
func (c *Client) GetIdempotentOrderID(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, "idempotency:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed idempotency value: %w", err)
	}
	return orderID, true, nil
}

// SetIdempotentOrderID records which order a checkout idempotency key
// produced
func (c *Client) SetIdempotentOrderID(ctx context.Context, key string, orderID int64) error {
	return c.rdb.Set(ctx, "idempotency:"+key, strconv.FormatInt(orderID, 10), c.idemTTL).Err()
}
