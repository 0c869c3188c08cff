package service

import (
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/domain/order"
	"github.com/brewcycle/brewcycle/internal/domain/preference"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	"github.com/brewcycle/brewcycle/internal/lock"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	"github.com/brewcycle/brewcycle/internal/publisher"
	"github.com/brewcycle/brewcycle/internal/sentry"
	"github.com/shopspring/decimal"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	SubRepo        subscription.Repository
	OrderRepo      order.Repository
	ProductRepo    product.Repository
	PreferenceRepo preference.Repository

	// ProductResolver is the cached, breaker guarded view of ProductRepo
	ProductResolver ProductResolver

	// Publishers
	EventPublisher publisher.EventPublisher

	Locker lock.Locker
	Sentry *sentry.Service
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	subRepo subscription.Repository,
	orderRepo order.Repository,
	productRepo product.Repository,
	preferenceRepo preference.Repository,
	productResolver ProductResolver,
	eventPublisher publisher.EventPublisher,
	locker lock.Locker,
	sentry *sentry.Service,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		SubRepo:         subRepo,
		OrderRepo:       orderRepo,
		ProductRepo:     productRepo,
		PreferenceRepo:  preferenceRepo,
		ProductResolver: productResolver,
		EventPublisher:  eventPublisher,
		Locker:          locker,
		Sentry:          sentry,
	}
}

// pricingCalculator builds the calculator for the configured pricing policy
func (p ServiceParams) pricingCalculator() *subscription.PricingCalculator {
	return subscription.NewPricingCalculator(subscription.PricingPolicy{
		DiscountRate: decimal.NewFromFloat(p.Config.Pricing.DiscountRate),
		TaxRate:      decimal.NewFromFloat(p.Config.Pricing.TaxRate),
		Shipping:     decimal.NewFromFloat(p.Config.Pricing.ShippingFlat),
	})
}
