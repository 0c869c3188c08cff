package types

import (
	"encoding/json"
	"time"
)

// Event is a subscription event published to the events topic
type Event struct {
	ID             string          `json:"id"`
	EventName      string          `json:"event_name"`
	UserID         string          `json:"user_id"`
	SubscriptionID string          `json:"subscription_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// subscription lifecycle event names
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionPaused    = "subscription.paused"
	EventSubscriptionResumed   = "subscription.resumed"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// renewal event names
const (
	EventSubscriptionRenewed       = "subscription.renewed"
	EventSubscriptionRenewalFailed = "subscription.renewal_failed"
)
