package product

import (
	"context"

	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The catalog is managed elsewhere; subscriptions
// only keep references to it.
type Product struct {
	ID    string          `db:"id" json:"id"`
	Name  string          `db:"name" json:"name"`
	SKU   string          `db:"sku" json:"sku"`
	Price decimal.Decimal `db:"price" json:"price"`
	Unit  string          `db:"unit" json:"unit"`

	Images types.StringList `db:"images" json:"images"`
	Stock  int              `db:"stock" json:"stock"`

	// FlavorCharacteristics and FlavorIntensity (1-5, optional) describe the taste profile
	FlavorCharacteristics types.StringList `db:"flavor_characteristics" json:"flavor_characteristics"`
	FlavorIntensity       *int             `db:"flavor_intensity" json:"flavor_intensity,omitempty"`

	Status types.Status `db:"status" json:"status"`

	types.BaseModel
}

// PrimaryImage returns the first image or an empty string
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// IsAvailable reports whether the product can still be ordered
func (p *Product) IsAvailable() bool {
	return p.Status == types.StatusPublished
}

// Lookup resolves a single product by id
type Lookup interface {
	Get(ctx context.Context, id string) (*Product, error)
}

type Repository interface {
	Lookup
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, filter *types.ProductFilter) ([]*Product, error)
}
