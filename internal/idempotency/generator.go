package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Scope represents the scope of idempotency
type Scope string

const (
	// ScopeRenewalOrder keys the order produced by one renewal cycle of a subscription
	ScopeRenewalOrder Scope = "renewal_order"
)

// Generator generates idempotency keys
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	// Sort params for consistent hashing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:8])) // First 8 bytes for readability
}

// ValidateKey validates if an idempotency key matches expected parameters
func (g *Generator) ValidateKey(scope Scope, params map[string]interface{}, key string) bool {
	return g.GenerateKey(scope, params) == key
}

// RenewalOrderKey is the key of the order created for subscriptionID's delivery
// scheduled at scheduledAt. A retried cycle for the same scheduled date yields the
// same key, so the existing order can be found and reused.
func (g *Generator) RenewalOrderKey(subscriptionID string, scheduledAt time.Time) string {
	return g.GenerateKey(ScopeRenewalOrder, map[string]interface{}{
		"subscription_id": subscriptionID,
		"scheduled_at":    scheduledAt.UTC().Format(time.RFC3339),
	})
}
