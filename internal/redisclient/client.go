package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/reserve_stock.lua
var reserveStockScript string

//go:embed scripts/release_stock.lua
var releaseStockScript string

//go:embed scripts/consume_stock.lua
var consumeStockScript string

// Client mirrors inventory counters in Redis for cheap reads, holds the
// settlement locks and caches suggestion results. Postgres stays the source
// of truth for every counter.
type Client struct {
	rdb           *redis.Client
	reserveScript *redis.Script
	releaseScript *redis.Script
	consumeScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
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

	return &Client{
		rdb:           rdb,
		reserveScript: redis.NewScript(reserveStockScript),
		releaseScript: redis.NewScript(releaseStockScript),
		consumeScript: redis.NewScript(consumeStockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func inventoryKey(inventoryID string) string {
	return fmt.Sprintf("inventory:%s", inventoryID)
}

// MirrorReserve applies a reservation to the mirrored counters. Returns false
// when the mirror lacked headroom and rejected the increment, which means it
// has drifted from the database and needs reseeding.
func (c *Client) MirrorReserve(ctx context.Context, inventoryID string, qty int) (bool, error) {
	applied, err := c.reserveScript.Run(ctx, c.rdb, []string{inventoryKey(inventoryID)}, qty).Int()
	if err != nil {
		return false, fmt.Errorf("reserve mirror script failed: %w", err)
	}
	return applied == 1, nil
}

// MirrorRelease applies a reservation release to the mirrored counters
func (c *Client) MirrorRelease(ctx context.Context, inventoryID string, qty int) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{inventoryKey(inventoryID)}, qty).Result()
	if err != nil {
		return fmt.Errorf("release mirror script failed: %w", err)
	}
	return nil
}

// MirrorConsume applies a permanent stock deduction to the mirrored counters
func (c *Client) MirrorConsume(ctx context.Context, inventoryID string, qty int) error {
	_, err := c.consumeScript.Run(ctx, c.rdb, []string{inventoryKey(inventoryID)}, qty).Result()
	if err != nil {
		return fmt.Errorf("consume mirror script failed: %w", err)
	}
	return nil
}

// InitInventory seeds the mirrored counters for one item
func (c *Client) InitInventory(ctx context.Context, inventoryID string, quantity, reserved int) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, inventoryKey(inventoryID), "quantity", quantity)
	pipe.HSet(ctx, inventoryKey(inventoryID), "reserved", reserved)

	_, err := pipe.Exec(ctx)
	return err
}

// GetInventory retrieves the mirrored counters for one item
func (c *Client) GetInventory(ctx context.Context, inventoryID string) (quantity, reserved int, err error) {
	result, err := c.rdb.HGetAll(ctx, inventoryKey(inventoryID)).Result()
	if err != nil {
		return 0, 0, err
	}
	if len(result) == 0 {
		return 0, 0, fmt.Errorf("inventory mirror not found for item %s", inventoryID)
	}

	fmt.Sscanf(result["quantity"], "%d", &quantity)
	fmt.Sscanf(result["reserved"], "%d", &reserved)
	return quantity, reserved, nil
}

// AcquireSettlementLock takes the per-suitcase settlement lock
func (c *Client) AcquireSettlementLock(ctx context.Context, suitcaseID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:settlement:%s", suitcaseID), "1", ttl).Result()
}

// ReleaseSettlementLock drops the per-suitcase settlement lock
func (c *Client) ReleaseSettlementLock(ctx context.Context, suitcaseID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:settlement:%s", suitcaseID)).Err()
}

// CacheSuggestions stores a serialized suggestion set for a reseller
func (c *Client) CacheSuggestions(ctx context.Context, sellerID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("suggestions:%s", sellerID), payload, ttl).Err()
}

// GetCachedSuggestions retrieves a cached suggestion set; redis.Nil on miss
func (c *Client) GetCachedSuggestions(ctx context.Context, sellerID string) ([]byte, error) {
	return c.rdb.Get(ctx, fmt.Sprintf("suggestions:%s", sellerID)).Bytes()
}

// IsCacheMiss reports whether err means the key was absent
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}
