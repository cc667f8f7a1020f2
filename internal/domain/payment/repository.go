package payment

import (
	"context"
)

// Repository defines read access to payments. Payments are only ever written
// together with their subscription, see subscription.Repository.
type Repository interface {
	Get(ctx context.Context, id string) (*Payment, error)
	// ListByUser returns the user's payments, newest first
	ListByUser(ctx context.Context, userID string) ([]*Payment, error)
	// GetLatestBySubscription returns the most recent payment of a subscription
	GetLatestBySubscription(ctx context.Context, subscriptionID string) (*Payment, error)
}
