package subscription

import (
	"testing"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/stretchr/testify/assert"
)

func testSubscription(next time.Time) *Subscription {
	return &Subscription{
		ID:               "subs_1",
		UserID:           "user_1",
		Status:           types.SubscriptionStatusActive,
		Frequency:        types.FrequencyWeekly,
		NextDeliveryDate: next,
		Products: LineItems{
			{ProductID: "prod_a", Quantity: 2},
			{ProductID: "prod_b", Quantity: 1},
			{ProductID: "prod_a", Quantity: 1},
		},
		Customizations: Customizations{
			Preferences: Preferences{FlavorTypes: []string{"Sweet"}},
			Exclusions:  []string{"Smoky"},
		},
		Version: 3,
	}
}

func TestSubscription_IsDue(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, testSubscription(now).IsDue(now))
	assert.True(t, testSubscription(now.Add(-time.Hour)).IsDue(now))
	assert.False(t, testSubscription(now.Add(time.Second)).IsDue(now))

	paused := testSubscription(now.Add(-time.Hour))
	paused.Status = types.SubscriptionStatusPaused
	assert.False(t, paused.IsDue(now))
}

func TestSubscription_ProductIDs(t *testing.T) {
	sub := testSubscription(time.Now())
	assert.Equal(t, []string{"prod_a", "prod_b"}, sub.ProductIDs())
}

func TestSubscription_Renewed(t *testing.T) {
	scheduled := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	now := scheduled.AddDate(0, 0, 10)
	sub := testSubscription(scheduled)

	renewed := sub.Renewed("ord_1", now)

	// original untouched
	assert.Empty(t, sub.History)
	assert.Equal(t, scheduled, sub.NextDeliveryDate)

	assert.Len(t, renewed.History, 1)
	assert.Equal(t, HistoryEntry{DeliveryDate: now, OrderRef: "ord_1", Status: types.HistoryStatusCompleted}, renewed.History[0])
	assert.Equal(t, scheduled.AddDate(0, 0, 7), renewed.NextDeliveryDate)
	assert.Equal(t, sub.Version, renewed.Version)
}

func TestSubscription_CopyIsDeep(t *testing.T) {
	sub := testSubscription(time.Now())
	c := sub.Copy()

	c.Products[0].Quantity = 99
	c.Customizations.Preferences.FlavorTypes[0] = "Bitter"
	c.Customizations.Exclusions[0] = "None"

	assert.Equal(t, 2, sub.Products[0].Quantity)
	assert.Equal(t, "Sweet", sub.Customizations.Preferences.FlavorTypes[0])
	assert.Equal(t, "Smoky", sub.Customizations.Exclusions[0])
}
