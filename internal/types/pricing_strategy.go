package types

import (
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/samber/lo"
)

// PricingStrategy decides which price a renewal bills
type PricingStrategy string

const (
	// PricingStrategyLockAtCreation bills the breakdown stored on the subscription
	PricingStrategyLockAtCreation PricingStrategy = "lock_at_creation"
	// PricingStrategyRepriceAtRenewal recomputes the breakdown from current product prices
	PricingStrategyRepriceAtRenewal PricingStrategy = "reprice_at_renewal"
)

func (p PricingStrategy) Validate() error {
	allowed := []PricingStrategy{PricingStrategyLockAtCreation, PricingStrategyRepriceAtRenewal}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid pricing strategy").
			WithHintf("Pricing strategy must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}
