package subscription

import (
	"database/sql/driver"
	"fmt"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/shopspring/decimal"
)

// PriceBreakdown is always computed as a whole: Total = BasePrice - Discount + Tax + Shipping
type PriceBreakdown struct {
	BasePrice decimal.Decimal `json:"base_price"`
	Discount  decimal.Decimal `json:"discount"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

func (p *PriceBreakdown) Scan(value any) error {
	return types.ScanJSONB(value, p)
}

func (p PriceBreakdown) Value() (driver.Value, error) {
	return types.JSONBValue(p)
}

// PricingPolicy holds the subscription pricing constants
type PricingPolicy struct {
	// DiscountRate is applied to the base price
	DiscountRate decimal.Decimal
	// TaxRate is applied to the discounted subtotal
	TaxRate decimal.Decimal
	// Shipping is a flat amount per delivery
	Shipping decimal.Decimal
}

// DefaultPricingPolicy is 10% subscription discount, 15% tax and free shipping
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		DiscountRate: decimal.NewFromFloat(0.10),
		TaxRate:      decimal.NewFromFloat(0.15),
		Shipping:     decimal.Zero,
	}
}

// PricingLine is one priced line: the current unit price and the quantity
type PricingLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type PricingCalculator struct {
	policy PricingPolicy
}

func NewPricingCalculator(policy PricingPolicy) *PricingCalculator {
	return &PricingCalculator{policy: policy}
}

// Policy returns the policy the calculator was built with
func (c *PricingCalculator) Policy() PricingPolicy {
	return c.policy
}

// ComputePrice prices the given lines. It fails with ErrInvalidLineItems when there are no
// lines, when a quantity is below 1 or when a unit price is negative.
// Amounts are exact; no rounding is applied.
func (c *PricingCalculator) ComputePrice(lines []PricingLine) (PriceBreakdown, error) {
	if len(lines) == 0 {
		return PriceBreakdown{}, ierr.NewError("no line items to price").
			WithHint("At least one product is required").
			Also(ierr.ErrValidation).
			Mark(ierr.ErrInvalidLineItems)
	}

	base := decimal.Zero
	for i, line := range lines {
		if line.Quantity < 1 {
			return PriceBreakdown{}, ierr.NewError(fmt.Sprintf("line %d has quantity %d", i, line.Quantity)).
				WithHint("Quantity must be at least 1").
				WithReportableDetails(map[string]any{"line": i, "quantity": line.Quantity}).
				Also(ierr.ErrValidation).
				Mark(ierr.ErrInvalidLineItems)
		}
		if line.UnitPrice.IsNegative() {
			return PriceBreakdown{}, ierr.NewError(fmt.Sprintf("line %d has negative unit price", i)).
				WithHint("Unit price cannot be negative").
				WithReportableDetails(map[string]any{"line": i, "unit_price": line.UnitPrice.String()}).
				Also(ierr.ErrValidation).
				Mark(ierr.ErrInvalidLineItems)
		}
		base = base.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	discount := base.Mul(c.policy.DiscountRate)
	tax := base.Sub(discount).Mul(c.policy.TaxRate)
	shipping := c.policy.Shipping

	return PriceBreakdown{
		BasePrice: base,
		Discount:  discount,
		Shipping:  shipping,
		Tax:       tax,
		Total:     base.Sub(discount).Add(tax).Add(shipping),
	}, nil
}
