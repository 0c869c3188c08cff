package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/brewcycle/brewcycle/internal/domain/product"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

var _ product.Repository = (*InMemoryProductStore)(nil)

// InMemoryProductStore implements product.Repository
type InMemoryProductStore struct {
	*InMemoryStore[*product.Product]

	mu      sync.RWMutex
	getErrs map[string]error
	gets    atomic.Int64
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		InMemoryStore: NewInMemoryStore[*product.Product](),
		getErrs:       make(map[string]error),
	}
}

// FailGet makes Get of product id return err until cleared with nil
func (s *InMemoryProductStore) FailGet(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.getErrs, id)
		return
	}
	s.getErrs[id] = err
}

// GetCalls returns how many times Get reached the store
func (s *InMemoryProductStore) GetCalls() int {
	return int(s.gets.Load())
}

func (s *InMemoryProductStore) Create(ctx context.Context, p *product.Product) error {
	c := *p
	return s.InMemoryStore.Create(ctx, p.ID, &c)
}

func (s *InMemoryProductStore) Get(ctx context.Context, id string) (*product.Product, error) {
	s.gets.Add(1)

	s.mu.RLock()
	injected := s.getErrs[id]
	s.mu.RUnlock()
	if injected != nil {
		return nil, injected
	}

	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || p.Status == types.StatusDeleted {
		return nil, ierr.NewErrorf("product %s not found", id).
			WithHintf("Product %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (s *InMemoryProductStore) Update(ctx context.Context, p *product.Product) error {
	c := *p
	return s.InMemoryStore.Update(ctx, p.ID, &c)
}

func (s *InMemoryProductStore) List(ctx context.Context, filter *types.ProductFilter) ([]*product.Product, error) {
	if filter == nil {
		filter = &types.ProductFilter{QueryFilter: types.DefaultQueryFilter}
	}
	return s.InMemoryStore.List(ctx, filter, productFilterFn, func(i, j *product.Product) bool {
		if i.CreatedAt.Equal(j.CreatedAt) {
			return i.ID < j.ID
		}
		return i.CreatedAt.Before(j.CreatedAt)
	})
}

func productFilterFn(_ context.Context, p *product.Product, filter interface{}) bool {
	f, ok := filter.(*types.ProductFilter)
	if !ok || f == nil {
		return true
	}
	if p.Status != f.GetStatus() {
		return false
	}
	if len(f.ProductIDs) > 0 && !lo.Contains(f.ProductIDs, p.ID) {
		return false
	}
	return true
}
