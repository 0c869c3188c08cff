package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey_IgnoresParamOrder(t *testing.T) {
	g := NewGenerator()

	a := g.GenerateKey(ScopeRenewalOrder, map[string]interface{}{"a": 1, "b": "two"})
	b := g.GenerateKey(ScopeRenewalOrder, map[string]interface{}{"b": "two", "a": 1})

	assert.Equal(t, a, b)
	assert.Contains(t, a, string(ScopeRenewalOrder)+"-")
	assert.True(t, g.ValidateKey(ScopeRenewalOrder, map[string]interface{}{"a": 1, "b": "two"}, a))
}

func TestRenewalOrderKey(t *testing.T) {
	g := NewGenerator()
	scheduled := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	// same instant in another zone is the same cycle
	sameInstant := scheduled.In(time.FixedZone("EST", -5*60*60))
	assert.Equal(t, g.RenewalOrderKey("subs_1", scheduled), g.RenewalOrderKey("subs_1", sameInstant))

	assert.NotEqual(t, g.RenewalOrderKey("subs_1", scheduled), g.RenewalOrderKey("subs_2", scheduled))
	assert.NotEqual(t, g.RenewalOrderKey("subs_1", scheduled), g.RenewalOrderKey("subs_1", scheduled.AddDate(0, 1, 0)))
}
