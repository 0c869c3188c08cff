package types

import (
	"database/sql/driver"
)

// Address is a flat postal address stored as JSONB
type Address struct {
	Name       string `json:"name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

func (a *Address) Scan(value any) error {
	return ScanJSONB(value, a)
}

func (a Address) Value() (driver.Value, error) {
	return JSONBValue(a)
}
