package types

import (
	"fmt"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle state of a subscription.
// cancelled is terminal; paused can go back to active.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusPaused,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Subscription status must be one of active, paused or cancelled").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether a subscription in status s may move to next
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	switch s {
	case SubscriptionStatusActive:
		return next == SubscriptionStatusPaused || next == SubscriptionStatusCancelled
	case SubscriptionStatusPaused:
		return next == SubscriptionStatusActive || next == SubscriptionStatusCancelled
	default:
		return false
	}
}

// Frequency is the delivery cadence of a subscription
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

var knownFrequencies = []Frequency{
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
	FrequencyQuarterly,
}

func (f Frequency) String() string {
	return string(f)
}

// IsKnown reports whether f is one of the supported cadences.
// Unknown values are scheduled as monthly.
func (f Frequency) IsKnown() bool {
	return lo.Contains(knownFrequencies, f)
}

func (f Frequency) Validate() error {
	if !f.IsKnown() {
		return ierr.NewError(fmt.Sprintf("invalid frequency %q", f)).
			WithHint("Frequency must be one of weekly, biweekly, monthly or quarterly").
			WithReportableDetails(map[string]any{
				"frequency":      f,
				"allowed_values": knownFrequencies,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HistoryStatus is the outcome recorded on a delivery history entry
type HistoryStatus string

const (
	HistoryStatusCompleted HistoryStatus = "completed"
)

// RenewalStatus is the outcome of a single renewal attempt
type RenewalStatus string

const (
	RenewalStatusSuccess RenewalStatus = "success"
	RenewalStatusFailed  RenewalStatus = "failed"
)
