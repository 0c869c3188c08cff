package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/pubsub/memory"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_Publish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.GetDefaultConfig()
	log := logger.NewNoopLogger()
	ps := memory.NewPubSub(cfg, log)
	defer ps.Close()

	messages, err := ps.Subscribe(ctx, cfg.Events.Topic)
	require.NoError(t, err)

	pub := NewEventPublisher(ps, cfg, log)
	event, err := NewEvent(types.EventSubscriptionRenewed, "user_1", "subs_1", map[string]string{"order_id": "ord_1"})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, types.EventSubscriptionRenewed, msg.Metadata.Get("event_name"))
		assert.Equal(t, "subs_1", msg.Metadata.Get("subscription_id"))

		var got types.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.JSONEq(t, `{"order_id":"ord_1"}`, string(got.Payload))
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestEventPublisher_Disabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Events.Enabled = false
	log := logger.NewNoopLogger()

	pub := NewEventPublisher(memory.NewPubSub(cfg, log), cfg, log)
	assert.NoError(t, pub.Publish(context.Background(), &types.Event{EventName: types.EventSubscriptionCreated}))
}
