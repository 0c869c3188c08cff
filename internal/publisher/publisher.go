package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/pubsub"
	"github.com/brewcycle/brewcycle/internal/types"
)

// EventPublisher publishes subscription events
type EventPublisher interface {
	Publish(ctx context.Context, event *types.Event) error
	Close() error
}

type eventPublisher struct {
	pubSub pubsub.PubSub
	config *config.EventsConfig
	logger *logger.Logger
}

func NewEventPublisher(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) EventPublisher {
	return &eventPublisher{
		pubSub: pubSub,
		config: &cfg.Events,
		logger: logger,
	}
}

// NewEvent builds an event for sub with payload marshalled as JSON
func NewEvent(name, userID, subscriptionID string, payload interface{}) (*types.Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &types.Event{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:      name,
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Timestamp:      time.Now().UTC(),
		Payload:        raw,
	}, nil
}

func (p *eventPublisher) Publish(ctx context.Context, event *types.Event) error {
	if !p.config.Enabled {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	messageID := event.ID
	if messageID == "" {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set("event_name", event.EventName)
	msg.Metadata.Set("subscription_id", event.SubscriptionID)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"subscription_id", event.SubscriptionID,
		)
		return err
	}

	p.logger.Debugw("published event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"subscription_id", event.SubscriptionID,
		"topic", p.config.Topic,
	)
	return nil
}

func (p *eventPublisher) Close() error {
	return p.pubSub.Close()
}
