package publisher

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	"github.com/flexprice/subscription-billing/internal/pubsub/router"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// AuditConsumer writes every subscription lifecycle event to the log as an audit trail
type AuditConsumer struct {
	pubSub pubsub.PubSub
	logger *logger.Logger
}

func NewAuditConsumer(pubSub pubsub.PubSub, logger *logger.Logger) *AuditConsumer {
	return &AuditConsumer{
		pubSub: pubSub,
		logger: logger,
	}
}

// RegisterHandler subscribes the consumer to the subscription events topic
func (c *AuditConsumer) RegisterHandler(r *router.Router) {
	r.AddNoPublishHandler(
		"subscription_audit",
		types.TopicSubscriptionEvents,
		c.pubSub,
		c.Handle,
	)
}

// Handle decodes one message and records it
func (c *AuditConsumer) Handle(msg *message.Message) error {
	var event types.SubscriptionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return err
	}

	c.logger.Infow("subscription audit",
		"event_id", event.ID,
		"event_name", event.EventName,
		"user_id", event.UserID,
		"subscription_id", event.SubscriptionID,
		"plan_id", event.PlanID,
		"previous_subscription_id", event.PreviousSubscriptionID,
		"previous_plan_id", event.PreviousPlanID,
		"amount", lo.FromPtr(event.Amount).String(),
		"request_id", msg.Metadata.Get("request_id"),
		"timestamp", event.Timestamp,
	)
	return nil
}
