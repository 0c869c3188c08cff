package types

import (
	"time"

	"github.com/samber/lo"
)

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=500"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// DefaultQueryFilter defines default values for query filters
var DefaultQueryFilter = QueryFilter{
	Limit:  lo.ToPtr(50),
	Offset: lo.ToPtr(0),
	Order:  lo.ToPtr("desc"),
}

// GetLimit returns the limit value or default if not set
func (f QueryFilter) GetLimit() int {
	if f.Limit == nil {
		return *DefaultQueryFilter.Limit
	}
	return *f.Limit
}

// GetOffset returns the offset value or default if not set
func (f QueryFilter) GetOffset() int {
	if f.Offset == nil {
		return *DefaultQueryFilter.Offset
	}
	return *f.Offset
}

// GetOrder returns the order value or default if not set
func (f QueryFilter) GetOrder() string {
	if f.Order == nil {
		return *DefaultQueryFilter.Order
	}
	return *f.Order
}

// SubscriptionFilter narrows subscription listings
type SubscriptionFilter struct {
	QueryFilter
	UserID string               `json:"user_id,omitempty" form:"user_id"`
	Status []SubscriptionStatus `json:"status,omitempty" form:"status"`
	// DueBefore selects subscriptions whose next delivery date is at or before the instant
	DueBefore *time.Time `json:"due_before,omitempty" form:"due_before" time_format:"2006-01-02T15:04:05Z07:00"`
}

func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{QueryFilter: DefaultQueryFilter}
}

func (f *SubscriptionFilter) Validate() error {
	for _, s := range f.Status {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ProductFilter narrows catalog listings
type ProductFilter struct {
	QueryFilter
	ProductIDs []string `json:"product_ids,omitempty" form:"product_ids"`
	Status     *Status  `json:"status,omitempty" form:"status"`
}

func (f *ProductFilter) GetStatus() Status {
	if f.Status == nil {
		return StatusPublished
	}
	return *f.Status
}
