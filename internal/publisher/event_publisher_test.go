package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/pubsub/memory"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_Publish(t *testing.T) {
	log := logger.NewNoopLogger()
	ps := memory.NewPubSub(log)
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := ps.Subscribe(ctx, types.TopicSubscriptionEvents)
	require.NoError(t, err)

	at := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	event := types.NewSubscriptionEvent(types.SubscriptionEventSwitched, "user_1", "subs_2", "plan_b", at)
	event.PreviousSubscriptionID = "subs_1"
	event.Amount = lo.ToPtr(decimal.NewFromInt(35))

	reqCtx := types.SetRequestID(ctx, "req-1")
	require.NoError(t, NewEventPublisher(ps, log).Publish(reqCtx, event))

	var msg *message.Message
	select {
	case msg = <-msgs:
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}

	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, string(types.SubscriptionEventSwitched), msg.Metadata.Get("event_name"))
	assert.Equal(t, "req-1", msg.Metadata.Get("request_id"))

	var got types.SubscriptionEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, "subs_1", got.PreviousSubscriptionID)
	assert.True(t, decimal.NewFromInt(35).Equal(*got.Amount))

	assert.NoError(t, NewAuditConsumer(ps, log).Handle(msg))
}

func TestAuditConsumer_RejectsMalformedPayload(t *testing.T) {
	log := logger.NewNoopLogger()
	c := NewAuditConsumer(memory.NewPubSub(log), log)

	err := c.Handle(message.NewMessage("m1", []byte("not json")))
	assert.Error(t, err)
}
