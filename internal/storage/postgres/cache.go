package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/stvgt/interfaces/internal/observability"
	"github.com/stvgt/interfaces/internal/registry"
)

// componentsCacheKey is the single Redis/L1 key holding the full
// getComponents dump — the read path has no filtering (spec is a full
// dump only), so there is exactly one cached value.
const componentsCacheKey = "ifreg:components"

// Cache is a two-level cache-aside layer in front of GetComponents: an
// in-process LRU (L1) backed by Redis (L2). Both levels are invalidated
// together whenever a setInterface call commits.
type Cache struct {
	l1     *lru.Cache[string, []registry.Component]
	l2     *redis.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCache builds a cache with an L1 of the given size and an optional L2
// Redis client (nil disables L2, leaving a pure in-process cache).
func NewCache(l1Size int, redisClient *redis.Client, ttl time.Duration, logger *observability.Logger) (*Cache, error) {
	if l1Size <= 0 {
		l1Size = 1
	}
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	l1, err := lru.New[string, []registry.Component](l1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 cache: %w", err)
	}

	return &Cache{l1: l1, l2: redisClient, ttl: ttl, logger: logger}, nil
}

// Get returns the cached component dump, trying L1 then L2.
func (c *Cache) Get(ctx context.Context) ([]registry.Component, bool) {
	if components, ok := c.l1.Get(componentsCacheKey); ok {
		return components, true
	}

	if c.l2 == nil {
		return nil, false
	}

	data, err := c.l2.Get(ctx, componentsCacheKey).Bytes()
	if err != nil {
		return nil, false
	}

	var components []registry.Component
	if err := json.Unmarshal(data, &components); err != nil {
		c.logger.WithError(err).Warn("failed to unmarshal cached component dump")
		return nil, false
	}

	c.l1.Add(componentsCacheKey, components)
	return components, true
}

// Set populates both cache levels with the given component dump.
func (c *Cache) Set(ctx context.Context, components []registry.Component) {
	c.l1.Add(componentsCacheKey, components)

	if c.l2 == nil {
		return
	}

	data, err := json.Marshal(components)
	if err != nil {
		c.logger.WithError(err).Warn("failed to marshal component dump for cache")
		return
	}
	if err := c.l2.Set(ctx, componentsCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to write component dump to L2 cache")
	}
}

// Invalidate drops the cached dump from both levels. Called after every
// committed setInterface, since any write can change the dump.
func (c *Cache) Invalidate(ctx context.Context) {
	c.l1.Remove(componentsCacheKey)
	if c.l2 == nil {
		return
	}
	if err := c.l2.Del(ctx, componentsCacheKey).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to invalidate L2 cache")
	}
}

// Name identifies this checker in the health report.
func (c *Cache) Name() string { return "redis" }

// Check pings the L2 client, if configured. A nil L2 reports healthy,
// since an in-process-only cache has nothing external to fail.
func (c *Cache) Check(ctx context.Context) error {
	if c.l2 == nil {
		return nil
	}
	return c.l2.Ping(ctx).Err()
}
