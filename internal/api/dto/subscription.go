package dto

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/brewcycle/brewcycle/internal/validator"
	"github.com/samber/lo"
)

// LineItemRequest selects a catalog product and the quantity delivered each cycle
type LineItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type CreateSubscriptionRequest struct {
	// UserID lets an admin create a subscription on behalf of a user.
	// Customers always subscribe for themselves.
	UserID          string                       `json:"user_id,omitempty"`
	Products        []LineItemRequest            `json:"products" validate:"required,min=1,dive"`
	Frequency       types.Frequency              `json:"frequency" validate:"required,frequency"`
	Customizations  *subscription.Customizations `json:"customizations,omitempty"`
	ShippingAddress types.Address                `json:"shipping_address" validate:"required"`
	PaymentDetails  subscription.PaymentDetails  `json:"payment_details"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// LineItems returns the requested products as subscription line items
func (r *CreateSubscriptionRequest) LineItems() subscription.LineItems {
	return toLineItems(r.Products)
}

// ToSubscription builds a new active subscription owned by userID.
// Price and next delivery date are filled in by the caller.
func (r *CreateSubscriptionRequest) ToSubscription(ctx context.Context, userID string) *subscription.Subscription {
	customizations := subscription.Customizations{}
	if r.Customizations != nil {
		customizations = r.Customizations.Copy()
	}

	return &subscription.Subscription{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:          userID,
		Status:          types.SubscriptionStatusActive,
		Frequency:       r.Frequency,
		Products:        r.LineItems(),
		Customizations:  customizations,
		ShippingAddress: r.ShippingAddress,
		PaymentDetails:  r.PaymentDetails,
		History:         subscription.History{},
		Version:         1,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// UpdateSubscriptionRequest changes only the fields that are set
type UpdateSubscriptionRequest struct {
	Products        []LineItemRequest            `json:"products,omitempty" validate:"omitempty,min=1,dive"`
	Frequency       *types.Frequency             `json:"frequency,omitempty" validate:"omitempty,frequency"`
	Customizations  *subscription.Customizations `json:"customizations,omitempty"`
	ShippingAddress *types.Address               `json:"shipping_address,omitempty"`
	PaymentDetails  *subscription.PaymentDetails `json:"payment_details,omitempty"`
}

func (r *UpdateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ProductsChanged reports whether the request replaces the line items of sub
func (r *UpdateSubscriptionRequest) ProductsChanged(sub *subscription.Subscription) bool {
	if r.Products == nil {
		return false
	}
	next := toLineItems(r.Products)
	if len(next) != len(sub.Products) {
		return true
	}
	for i := range next {
		if next[i] != sub.Products[i] {
			return true
		}
	}
	return false
}

// FrequencyChanged reports whether the request moves sub to another cadence
func (r *UpdateSubscriptionRequest) FrequencyChanged(sub *subscription.Subscription) bool {
	return r.Frequency != nil && *r.Frequency != sub.Frequency
}

// Apply returns a copy of sub with the requested changes. sub itself is left as is.
func (r *UpdateSubscriptionRequest) Apply(ctx context.Context, sub *subscription.Subscription) *subscription.Subscription {
	next := sub.Copy()
	if r.Products != nil {
		next.Products = toLineItems(r.Products)
	}
	if r.Frequency != nil {
		next.Frequency = *r.Frequency
	}
	if r.Customizations != nil {
		next.Customizations = r.Customizations.Copy()
	}
	if r.ShippingAddress != nil {
		next.ShippingAddress = *r.ShippingAddress
	}
	if r.PaymentDetails != nil {
		next.PaymentDetails = *r.PaymentDetails
	}
	next.UpdatedAt = time.Now().UTC()
	next.UpdatedBy = types.GetUserID(ctx)
	return next
}

func toLineItems(items []LineItemRequest) subscription.LineItems {
	return lo.Map(items, func(item LineItemRequest, _ int) subscription.LineItem {
		return subscription.LineItem{ProductID: item.ProductID, Quantity: item.Quantity}
	})
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

// ListSubscriptionsResponse is a page of subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]
