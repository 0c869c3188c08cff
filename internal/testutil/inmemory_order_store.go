package testutil

import (
	"context"
	"sync"

	"github.com/brewcycle/brewcycle/internal/domain/order"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
)

var _ order.Repository = (*InMemoryOrderStore)(nil)

// InMemoryOrderStore implements order.Repository with a unique idempotency key index
type InMemoryOrderStore struct {
	*InMemoryStore[*order.Order]

	mu        sync.Mutex
	byKey     map[string]string
	createErr error
	onCreate  func(ctx context.Context, o *order.Order)
}

func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{
		InMemoryStore: NewInMemoryStore[*order.Order](),
		byKey:         make(map[string]string),
	}
}

// FailCreate makes Create return err until cleared with nil
func (s *InMemoryOrderStore) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// OnCreate registers fn to run at the start of every Create, before the
// idempotency key is checked. fn may write to the store.
func (s *InMemoryOrderStore) OnCreate(fn func(ctx context.Context, o *order.Order)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCreate = fn
}

func (s *InMemoryOrderStore) Create(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	hook := s.onCreate
	s.mu.Unlock()
	if hook != nil {
		hook(ctx, o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}

	if o.IdempotencyKey != "" {
		if _, exists := s.byKey[o.IdempotencyKey]; exists {
			return ierr.NewError("order with idempotency key already exists").
				WithHint("An order for this delivery already exists").
				WithReportableDetails(map[string]any{"idempotency_key": o.IdempotencyKey}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	if o.OrderNumber == "" {
		o.OrderNumber = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_ORDER)
	}

	stored := *o
	if err := s.InMemoryStore.Create(ctx, o.ID, &stored); err != nil {
		return err
	}
	if o.IdempotencyKey != "" {
		s.byKey[o.IdempotencyKey] = o.ID
	}
	return nil
}

func (s *InMemoryOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Order %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *o
	return &c, nil
}

func (s *InMemoryOrderStore) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	s.mu.Lock()
	id, ok := s.byKey[key]
	s.mu.Unlock()

	if !ok {
		return nil, ierr.NewError("order not found").
			WithHint("No order for this idempotency key").
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *InMemoryOrderStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*order.Order, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, o *order.Order, _ interface{}) bool {
		return o.SubscriptionID == subscriptionID
	}, func(i, j *order.Order) bool {
		if i.CreatedAt.Equal(j.CreatedAt) {
			return i.ID < j.ID
		}
		return i.CreatedAt.Before(j.CreatedAt)
	})
}

// Clear removes all orders
func (s *InMemoryOrderStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InMemoryStore.Clear()
	s.byKey = make(map[string]string)
	s.onCreate = nil
}
