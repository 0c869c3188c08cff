package order

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/shopspring/decimal"
)

// Order is a priced, fulfilled purchase. Renewal creates orders already marked paid.
type Order struct {
	ID string `db:"id" json:"id"`

	// OrderNumber is the human readable reference, e.g. ORD-8XK2P0QA
	OrderNumber string `db:"order_number" json:"order_number"`

	UserID         string `db:"user_id" json:"user_id"`
	SubscriptionID string `db:"subscription_id" json:"subscription_id,omitempty"`

	// IdempotencyKey identifies the renewal cycle that produced the order
	IdempotencyKey string `db:"idempotency_key" json:"idempotency_key,omitempty"`

	LineItems       LineItems     `db:"line_items" json:"line_items"`
	ShippingAddress types.Address `db:"shipping_address" json:"shipping_address"`
	PaymentMethod   string        `db:"payment_method" json:"payment_method"`

	BasePrice  decimal.Decimal `db:"base_price" json:"base_price"`
	Discount   decimal.Decimal `db:"discount" json:"discount"`
	Tax        decimal.Decimal `db:"tax" json:"tax"`
	Shipping   decimal.Decimal `db:"shipping" json:"shipping"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`

	IsPaid         bool       `db:"is_paid" json:"is_paid"`
	PaidAt         *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	IsSubscription bool       `db:"is_subscription" json:"is_subscription"`

	types.BaseModel
}

// LineItem is a denormalized copy of the product at the time of ordering
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit,omitempty"`
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

// Repository is the order store
type Repository interface {
	// Create persists o, assigning an order number when it has none.
	// A duplicate idempotency key fails with ErrAlreadyExists.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// GetByIdempotencyKey fails with ErrNotFound when no order carries key
	GetByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Order, error)
}
