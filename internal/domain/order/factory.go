package order

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/idempotency"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

// CreationPayload is everything needed to create the order for one renewal cycle
type CreationPayload struct {
	UserID          string
	SubscriptionID  string
	IdempotencyKey  string
	LineItems       LineItems
	ShippingAddress types.Address
	PaymentMethod   string
	Price           subscription.PriceBreakdown
	IsPaid          bool
	PaidAt          time.Time
	IsSubscription  bool
}

var keys = idempotency.NewGenerator()

// BuildOrderPayload materializes the order for sub's currently scheduled delivery.
// products must hold the current catalog entry for every product sub references;
// a missing or unavailable one fails with ErrProductNotFound naming its id.
// The subscription's stored price breakdown is billed as is.
func BuildOrderPayload(sub *subscription.Subscription, products map[string]*product.Product, paidAt time.Time) (*CreationPayload, error) {
	items := make(LineItems, 0, len(sub.Products))
	for _, line := range sub.Products {
		p, ok := products[line.ProductID]
		if !ok || p == nil || !p.IsAvailable() {
			return nil, ProductNotFound(line.ProductID)
		}
		items = append(items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Image:     p.PrimaryImage(),
			UnitPrice: p.Price,
			Unit:      p.Unit,
		})
	}

	return &CreationPayload{
		UserID:          sub.UserID,
		SubscriptionID:  sub.ID,
		IdempotencyKey:  keys.RenewalOrderKey(sub.ID, sub.NextDeliveryDate),
		LineItems:       items,
		ShippingAddress: sub.ShippingAddress,
		PaymentMethod:   sub.PaymentDetails.Method,
		Price:           sub.Price,
		IsPaid:          true,
		PaidAt:          paidAt,
		IsSubscription:  true,
	}, nil
}

// ToOrder builds the order to persist from the payload
func (p *CreationPayload) ToOrder(ctx context.Context) *Order {
	return &Order{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		UserID:          p.UserID,
		SubscriptionID:  p.SubscriptionID,
		IdempotencyKey:  p.IdempotencyKey,
		LineItems:       p.LineItems,
		ShippingAddress: p.ShippingAddress,
		PaymentMethod:   p.PaymentMethod,
		BasePrice:       p.Price.BasePrice,
		Discount:        p.Price.Discount,
		Tax:             p.Price.Tax,
		Shipping:        p.Price.Shipping,
		TotalPrice:      p.Price.Total,
		IsPaid:          p.IsPaid,
		PaidAt:          lo.ToPtr(p.PaidAt),
		IsSubscription:  p.IsSubscription,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// ProductNotFound is the error for a subscription line whose product cannot be resolved
func ProductNotFound(productID string) error {
	return ierr.NewErrorf("product %s not found", productID).
		WithHintf("Product %s no longer exists or is inactive", productID).
		WithReportableDetails(map[string]any{"product_id": productID}).
		Also(ierr.ErrNotFound).
		Mark(ierr.ErrProductNotFound)
}
