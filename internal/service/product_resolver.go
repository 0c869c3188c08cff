package service

import (
	"context"
	"errors"

	"github.com/brewcycle/brewcycle/internal/cache"
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/domain/order"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/sony/gobreaker/v2"
)

// ProductResolver resolves the catalog products a subscription references
type ProductResolver interface {
	// Get returns the current catalog entry for id. A product that does not exist
	// fails with ErrProductNotFound.
	Get(ctx context.Context, id string) (*product.Product, error)

	// Resolve returns the catalog entry for every distinct id, keyed by id. Cached
	// entries are served as they are.
	// It stops at the first product that cannot be resolved.
	Resolve(ctx context.Context, ids []string) (map[string]*product.Product, error)

	// ResolveFresh is Resolve without the cache read. Every id goes to the catalog
	// and the cached entries are refreshed with what it returns.
	ResolveFresh(ctx context.Context, ids []string) (map[string]*product.Product, error)
}

type productResolver struct {
	lookup  product.Lookup
	cache   cache.Cache
	breaker *gobreaker.CircuitBreaker[*product.Product]
	cfg     *config.Configuration
	logger  *logger.Logger
}

// NewProductResolver wraps lookup with a read-through cache and a circuit breaker.
// Only catalog failures count against the breaker; a missing product is an answer.
func NewProductResolver(lookup product.Lookup, c cache.Cache, cfg *config.Configuration, logger *logger.Logger) ProductResolver {
	settings := gobreaker.Settings{
		Name:        "product_lookup",
		MaxRequests: 1,
		Interval:    cfg.ProductLookup.BreakerInterval,
		Timeout:     cfg.ProductLookup.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ProductLookup.BreakerMaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || ierr.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &productResolver{
		lookup:  lookup,
		cache:   c,
		breaker: gobreaker.NewCircuitBreaker[*product.Product](settings),
		cfg:     cfg,
		logger:  logger,
	}
}

func (r *productResolver) Get(ctx context.Context, id string) (*product.Product, error) {
	key := cache.GenerateKey(cache.PrefixProduct, id)
	if cached, found := r.cache.Get(ctx, key); found {
		if p, ok := cached.(*product.Product); ok {
			return p, nil
		}
	}

	return r.fetch(ctx, id)
}

// fetch reads id from the catalog through the breaker and writes the answer back
// to the cache. A product the catalog no longer has is evicted.
func (r *productResolver) fetch(ctx context.Context, id string) (*product.Product, error) {
	key := cache.GenerateKey(cache.PrefixProduct, id)
	p, err := r.breaker.Execute(func() (*product.Product, error) {
		return r.lookup.Get(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ierr.WithError(err).
				WithHint("Product catalog is temporarily unavailable").
				WithReportableDetails(map[string]any{"product_id": id}).
				Mark(ierr.ErrSystem)
		}
		if ierr.IsNotFound(err) {
			r.cache.Delete(ctx, key)
			return nil, order.ProductNotFound(id)
		}
		return nil, err
	}

	r.cache.Set(ctx, key, p, r.cfg.Cache.ProductTTL)
	return p, nil
}

func (r *productResolver) Resolve(ctx context.Context, ids []string) (map[string]*product.Product, error) {
	return r.resolve(ctx, ids, r.Get)
}

func (r *productResolver) ResolveFresh(ctx context.Context, ids []string) (map[string]*product.Product, error) {
	return r.resolve(ctx, ids, r.fetch)
}

func (r *productResolver) resolve(
	ctx context.Context,
	ids []string,
	get func(context.Context, string) (*product.Product, error),
) (map[string]*product.Product, error) {
	products := make(map[string]*product.Product, len(ids))
	for _, id := range ids {
		if _, ok := products[id]; ok {
			continue
		}
		p, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
	}
	return products, nil
}

// priceLines resolves the unit price of every line in items. Products that are no
// longer available fail with ErrProductNotFound.
func priceLines(items subscription.LineItems, products map[string]*product.Product) ([]subscription.PricingLine, error) {
	lines := make([]subscription.PricingLine, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || p == nil || !p.IsAvailable() {
			return nil, order.ProductNotFound(item.ProductID)
		}
		lines = append(lines, subscription.PricingLine{UnitPrice: p.Price, Quantity: item.Quantity})
	}
	return lines, nil
}
