package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-core/internal/models"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by Get when no snapshot is cached for the owner.
var ErrCacheMiss = errors.New("cache miss")

const (
	serviceName    = "order-core"
	cartPrefix     = "cart"
	checkoutPrefix = "checkout"
)

// CartCache holds read-optimized cart snapshots in Redis, one per owner,
// TTL-bounded. Snapshots are written wholesale; there are no field-level
// updates. It also hosts the per-owner checkout lock.
type CartCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCartCache connects to Redis and returns the cache.
func NewCartCache(addr, password string, db int, ttl time.Duration) (*CartCache, error) {
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

	return &CartCache{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *CartCache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached snapshot for owner, or ErrCacheMiss.
func (c *CartCache) Get(ctx context.Context, owner string) (*models.CartView, error) {
	data, err := c.rdb.Get(ctx, cartKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var view models.CartView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}
	return &view, nil
}

// Set stores the snapshot for owner with the default TTL.
func (c *CartCache) Set(ctx context.Context, owner string, view *models.CartView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	if err := c.rdb.Set(ctx, cartKey(owner), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes the owner's snapshot.
func (c *CartCache) Delete(ctx context.Context, owner string) error {
	if err := c.rdb.Del(ctx, cartKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ExtendTTL resets the snapshot's expiry without rewriting its content.
func (c *CartCache) ExtendTTL(ctx context.Context, owner string) error {
	if err := c.rdb.Expire(ctx, cartKey(owner), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire failed: %w", err)
	}
	return nil
}

// AcquireCheckoutLock takes the per-owner checkout lock. Returns false when a
// checkout is already in flight for this owner.
func (c *CartCache) AcquireCheckoutLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, checkoutKey(owner), "1", ttl).Result()
}

// ReleaseCheckoutLock releases the per-owner checkout lock.
func (c *CartCache) ReleaseCheckoutLock(ctx context.Context, owner string) error {
	return c.rdb.Del(ctx, checkoutKey(owner)).Err()
}

func cartKey(owner string) string {
	return fmt.Sprintf("%s:%s:%s", serviceName, cartPrefix, owner)
}

func checkoutKey(owner string) string {
	return fmt.Sprintf("%s:%s:%s", serviceName, checkoutPrefix, owner)
}
