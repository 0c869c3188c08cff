package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache is a key value store for lookups that may be served slightly stale
type Cache interface {
	// Get returns the value stored under key and whether there was one
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores value under key for expiration, or the cache default when
	// expiration is not positive
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Delete drops key, a missing key is not an error
	Delete(ctx context.Context, key string)
}

// PrefixProduct namespaces catalog entries; bump the version when the cached
// product shape changes
const PrefixProduct = "product:v1:"

// GenerateKey joins prefix and params with colons
func GenerateKey(prefix string, params ...interface{}) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, prefix)
	for _, param := range params {
		parts = append(parts, fmt.Sprint(param))
	}
	return strings.Join(parts, ":")
}
