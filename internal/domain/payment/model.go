package payment

import (
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is the charge recorded with a subscription row. Every subscription
// row gets exactly one payment, written in the same transaction.
type Payment struct {
	ID string `db:"id" json:"id"`
	// Reference is a short human readable identifier printed on receipts
	Reference      string              `db:"reference" json:"reference"`
	UserID         string              `db:"user_id" json:"user_id"`
	SubscriptionID string              `db:"subscription_id" json:"subscription_id"`
	Amount         decimal.Decimal     `db:"amount" json:"amount"`
	Status         types.PaymentStatus `db:"status" json:"status"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

// NewCompleted builds the COMPLETED payment recorded for a new subscription row
func NewCompleted(userID, subscriptionID string, amount decimal.Decimal, at time.Time) *Payment {
	return &Payment{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		Reference:      types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Amount:         amount.Round(types.DEFAULT_FLOATING_PRECISION),
		Status:         types.PaymentStatusCompleted,
		CreatedAt:      at,
	}
}

func (p *Payment) Validate() error {
	if p.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be zero or greater").
			Mark(ierr.ErrValidation)
	}
	if p.UserID == "" {
		return ierr.NewError("invalid user id").
			WithHint("User id is required").
			Mark(ierr.ErrValidation)
	}
	if p.SubscriptionID == "" {
		return ierr.NewError("invalid subscription id").
			WithHint("Subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.Status.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Payment status is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}
