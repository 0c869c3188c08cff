package dto

import (
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
)

// RenewalDetail reports one subscription's renewal attempt
type RenewalDetail struct {
	SubscriptionID string              `json:"subscription_id"`
	OrderID        string              `json:"order_id,omitempty"`
	Status         types.RenewalStatus `json:"status"`
	Error          string              `json:"error,omitempty"`

	// FrequencyFallback is set when the stored cadence was not recognised and
	// the next delivery date was computed as monthly
	FrequencyFallback bool `json:"frequency_fallback,omitempty"`
}

// RenewalReport aggregates one renewal run. Processed counts successful renewals.
type RenewalReport struct {
	Processed   int             `json:"processed"`
	Failed      int             `json:"failed"`
	Details     []RenewalDetail `json:"details"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}
