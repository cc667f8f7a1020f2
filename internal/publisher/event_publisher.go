package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	"github.com/flexprice/subscription-billing/internal/types"
)

// EventPublisher publishes subscription lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event *types.SubscriptionEvent) error
}

type eventPublisher struct {
	pubSub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewEventPublisher creates a publisher writing to the subscription events topic
func NewEventPublisher(pubSub pubsub.PubSub, logger *logger.Logger) EventPublisher {
	return &eventPublisher{
		pubSub: pubSub,
		topic:  types.TopicSubscriptionEvents,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event *types.SubscriptionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_name", string(event.EventName))
	msg.Metadata.Set("user_id", event.UserID)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	p.logger.Debugw("publishing subscription event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"user_id", event.UserID,
		"topic", p.topic,
	)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish subscription event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return err
	}

	return nil
}
