package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopicSubscriptionEvents is the pubsub topic carrying subscription lifecycle events
const TopicSubscriptionEvents = "subscription_events"

// SubscriptionEventName identifies a lifecycle transition
type SubscriptionEventName string

const (
	SubscriptionEventCreated   SubscriptionEventName = "subscription.created"
	SubscriptionEventCancelled SubscriptionEventName = "subscription.cancelled"
	SubscriptionEventSwitched  SubscriptionEventName = "subscription.switched"
)

// SubscriptionEvent is published after a lifecycle transition has been committed
type SubscriptionEvent struct {
	ID             string                `json:"id"`
	EventName      SubscriptionEventName `json:"event_name"`
	UserID         string                `json:"user_id"`
	SubscriptionID string                `json:"subscription_id"`
	PlanID         string                `json:"plan_id"`
	// Previous* are set on switches only
	PreviousSubscriptionID string           `json:"previous_subscription_id,omitempty"`
	PreviousPlanID         string           `json:"previous_plan_id,omitempty"`
	Amount                 *decimal.Decimal `json:"amount,omitempty"`
	RemainingCredit        *decimal.Decimal `json:"remaining_credit,omitempty"`
	Timestamp              time.Time        `json:"timestamp"`
}

func NewSubscriptionEvent(name SubscriptionEventName, userID, subscriptionID, planID string, at time.Time) *SubscriptionEvent {
	return &SubscriptionEvent{
		ID:             GenerateUUIDWithPrefix(UUID_PREFIX_EVENT),
		EventName:      name,
		UserID:         userID,
		SubscriptionID: subscriptionID,
		PlanID:         planID,
		Timestamp:      at,
	}
}
