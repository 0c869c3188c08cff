package subscription

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)

	// Update persists sub if the stored version still equals sub.Version and bumps
	// the version on success. A mismatch fails with ErrVersionConflict.
	Update(ctx context.Context, sub *Subscription) error

	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)

	// FindDue returns active subscriptions whose next delivery date is at or before now
	FindDue(ctx context.Context, now time.Time) ([]*Subscription, error)
}
