package subscription

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
)

// Repository is the transactional store of subscriptions and their payments.
// Writes that touch more than one row are single atomic operations.
type Repository interface {
	Get(ctx context.Context, id string) (*Subscription, error)

	// GetActiveByUser returns the user's active subscription or an ErrNotFound marked error
	GetActiveByUser(ctx context.Context, userID string) (*Subscription, error)

	// ListByUser returns every subscription row of the user, newest first
	ListByUser(ctx context.Context, userID string) ([]*Subscription, error)

	// CreateWithPayment inserts the subscription and its payment atomically.
	// A second active subscription for the same user fails with ErrAlreadyExists.
	CreateWithPayment(ctx context.Context, sub *Subscription, pay *payment.Payment) error

	// Deactivate marks the active subscription id inactive at endDate.
	// It fails with ErrNotFound when id is not (or no longer) active.
	Deactivate(ctx context.Context, id string, endDate time.Time) error

	// SwitchAtomic deactivates deactivateID and inserts sub and pay in one transaction.
	// Nothing is written unless every step succeeds.
	SwitchAtomic(ctx context.Context, deactivateID string, endDate time.Time, sub *Subscription, pay *payment.Payment) error
}
