package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

var _ subscription.Repository = (*InMemorySubscriptionStore)(nil)

// InMemorySubscriptionStore implements subscription.Repository. It keeps its own
// copies, so callers never share memory with what is stored.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	// updateMu makes the version check and the write one step
	updateMu sync.Mutex

	faultMu      sync.RWMutex
	findDueErr   error
	updateErrs   map[string]error
	beforeUpdate func(sub *subscription.Subscription)
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		updateErrs:    make(map[string]error),
	}
}

// FailFindDue makes FindDue return err until cleared with nil
func (s *InMemorySubscriptionStore) FailFindDue(err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.findDueErr = err
}

// FailUpdate makes Update of subscription id return err until cleared with nil
func (s *InMemorySubscriptionStore) FailUpdate(id string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err == nil {
		delete(s.updateErrs, id)
		return
	}
	s.updateErrs[id] = err
}

// BeforeUpdate registers fn to run at the start of every Update, e.g. to simulate
// a concurrent edit landing between read and write
func (s *InMemorySubscriptionStore) BeforeUpdate(fn func(sub *subscription.Subscription)) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.beforeUpdate = fn
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub.Copy())
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return sub.Copy(), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.faultMu.RLock()
	injected := s.updateErrs[sub.ID]
	hook := s.beforeUpdate
	s.faultMu.RUnlock()

	if hook != nil {
		hook(sub)
	}
	if injected != nil {
		return injected
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	stored, err := s.InMemoryStore.Get(ctx, sub.ID)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Subscription %s not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	if stored.Version != sub.Version {
		return ierr.NewErrorf("subscription %s version mismatch", sub.ID).
			WithHint("The subscription was changed by someone else, reload and try again").
			WithReportableDetails(map[string]any{
				"subscription_id":  sub.ID,
				"expected_version": sub.Version,
				"actual_version":   stored.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	sub.Touch(ctx, time.Now().UTC())
	next := sub.Copy()
	next.Version++
	if err := s.InMemoryStore.Update(ctx, sub.ID, next); err != nil {
		return err
	}
	sub.Version = next.Version
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return sub.Copy()
	}), nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}

func (s *InMemorySubscriptionStore) FindDue(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	s.faultMu.RLock()
	injected := s.findDueErr
	s.faultMu.RUnlock()
	if injected != nil {
		return nil, injected
	}

	subs, err := s.InMemoryStore.List(ctx, now, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.IsDue(now)
	}, subscriptionSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return sub.Copy()
	}), nil
}

// subscriptionFilterFn implements filtering logic for subscriptions
func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub == nil {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}

	if f.UserID != "" && sub.UserID != f.UserID {
		return false
	}

	if len(f.Status) > 0 && !lo.Contains(f.Status, sub.Status) {
		return false
	}

	if f.DueBefore != nil && sub.NextDeliveryDate.After(*f.DueBefore) {
		return false
	}

	return true
}

// subscriptionSortFn orders by creation time, ties broken by id
func subscriptionSortFn(i, j *subscription.Subscription) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID < j.ID
	}
	return i.CreatedAt.Before(j.CreatedAt)
}
