package cache

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/logger"
	goCache "github.com/patrickmn/go-cache"
)

const (
	// defaultExpiration applies to entries set without an explicit TTL
	defaultExpiration = 30 * time.Minute
	cleanupInterval   = time.Hour

	opGet    = "get"
	opDelete = "delete"
)

// InMemoryCache is a process local Cache over github.com/patrickmn/go-cache.
// When caching is disabled in config every read misses and writes are dropped.
type InMemoryCache struct {
	items   *goCache.Cache
	enabled bool
}

func NewInMemoryCache(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache", "enabled", cfg.Cache.Enabled, "product_ttl", cfg.Cache.ProductTTL)
	return &InMemoryCache{
		items:   goCache.New(defaultExpiration, cleanupInterval),
		enabled: cfg.Cache.Enabled,
	}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}

	finish := traceOp(ctx, opGet, key)
	value, found := c.items.Get(key)
	finish(found)
	return value, found
}

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	if expiration <= 0 {
		expiration = goCache.DefaultExpiration
	}
	c.items.Set(key, value, expiration)
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) {
	if !c.enabled {
		return
	}

	finish := traceOp(ctx, opDelete, key)
	c.items.Delete(key)
	finish(false)
}
