package subscription

import (
	"database/sql/driver"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

// Subscription is a standing recurring order template owned by one user
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// UserID is the owner. Only the owner and admins can read or change it.
	UserID string `db:"user_id" json:"user_id"`

	Status types.SubscriptionStatus `db:"status" json:"status"`

	// Frequency is the delivery cadence
	Frequency types.Frequency `db:"frequency" json:"frequency"`

	// NextDeliveryDate gates renewal: an active subscription is due once this is at or before now
	NextDeliveryDate time.Time `db:"next_delivery_date" json:"next_delivery_date"`

	// Products holds weak references to catalog products. Prices are looked up when needed.
	Products LineItems `db:"products" json:"products"`

	Customizations Customizations `db:"customizations" json:"customizations"`

	ShippingAddress types.Address `db:"shipping_address" json:"shipping_address"`

	// PaymentDetails are opaque references owned by the payment provider
	PaymentDetails PaymentDetails `db:"payment_details" json:"payment_details"`

	// Price is the last computed breakdown for the current products
	Price PriceBreakdown `db:"price" json:"price"`

	// History is append-only, one entry per successful renewal
	History History `db:"history" json:"history"`

	// Version is used for optimistic locking on update
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// LineItem is a product reference with the quantity delivered each cycle
type LineItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type LineItems []LineItem

func (l *LineItems) Scan(value any) error {
	result := LineItems{}
	if err := types.ScanJSONB(value, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return types.JSONBValue([]LineItem{})
	}
	return types.JSONBValue([]LineItem(l))
}

// Preferences are the taste choices captured when the subscription was built
type Preferences struct {
	FlavorTypes     []string `json:"flavor_types"`
	Intensity       int      `json:"intensity,omitempty" validate:"omitempty,min=1,max=5"`
	SurpriseElement bool     `json:"surprise_element"`
}

type Customizations struct {
	Preferences Preferences `json:"preferences"`
	Exclusions  []string    `json:"exclusions"`
}

func (c *Customizations) Scan(value any) error {
	return types.ScanJSONB(value, c)
}

func (c Customizations) Value() (driver.Value, error) {
	return types.JSONBValue(c)
}

// Copy returns a deep copy
func (c Customizations) Copy() Customizations {
	return Customizations{
		Preferences: Preferences{
			FlavorTypes:     append([]string(nil), c.Preferences.FlavorTypes...),
			Intensity:       c.Preferences.Intensity,
			SurpriseElement: c.Preferences.SurpriseElement,
		},
		Exclusions: append([]string(nil), c.Exclusions...),
	}
}

type PaymentDetails struct {
	Method                  string `json:"method"`
	LastFour                string `json:"last_four,omitempty"`
	ExternalCustomerRef     string `json:"external_customer_ref,omitempty"`
	ExternalSubscriptionRef string `json:"external_subscription_ref,omitempty"`
}

func (p *PaymentDetails) Scan(value any) error {
	return types.ScanJSONB(value, p)
}

func (p PaymentDetails) Value() (driver.Value, error) {
	return types.JSONBValue(p)
}

// HistoryEntry records one successful renewal
type HistoryEntry struct {
	DeliveryDate time.Time           `json:"delivery_date"`
	OrderRef     string              `json:"order_ref"`
	Status       types.HistoryStatus `json:"status"`
}

type History []HistoryEntry

func (h *History) Scan(value any) error {
	result := History{}
	if err := types.ScanJSONB(value, &result); err != nil {
		return err
	}
	*h = result
	return nil
}

func (h History) Value() (driver.Value, error) {
	if h == nil {
		return types.JSONBValue([]HistoryEntry{})
	}
	return types.JSONBValue([]HistoryEntry(h))
}

// IsDue reports whether the subscription should be renewed at now
func (s *Subscription) IsDue(now time.Time) bool {
	return s.Status == types.SubscriptionStatusActive && !s.NextDeliveryDate.After(now)
}

// ProductIDs returns the distinct referenced product ids in line order
func (s *Subscription) ProductIDs() []string {
	return lo.Uniq(lo.Map(s.Products, func(item LineItem, _ int) string {
		return item.ProductID
	}))
}

// Copy returns a deep copy, so changes to the copy never reach the original
func (s *Subscription) Copy() *Subscription {
	c := *s
	c.Products = append(LineItems(nil), s.Products...)
	c.History = append(History(nil), s.History...)
	c.Customizations = s.Customizations.Copy()
	return &c
}

// Renewed returns a copy of s after a successful renewal at deliveredAt that produced orderID:
// one completed history entry is appended and the next delivery date moves one cadence
// forward from the previously scheduled date, not from deliveredAt, so late runs stay on grid.
func (s *Subscription) Renewed(orderID string, deliveredAt time.Time) *Subscription {
	next := s.Copy()
	next.History = append(next.History, HistoryEntry{
		DeliveryDate: deliveredAt,
		OrderRef:     orderID,
		Status:       types.HistoryStatusCompleted,
	})
	next.NextDeliveryDate = types.NextDeliveryDate(s.NextDeliveryDate, s.Frequency)
	return next
}
