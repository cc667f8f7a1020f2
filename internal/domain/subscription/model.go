package subscription

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
)

// Subscription is one period of a user's membership of a plan. Rows are never
// deleted: cancel and switch deactivate the current row, and a switch appends a
// new one, so a user's rows form an append-only history with at most one active.
type Subscription struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	PlanID          string     `db:"plan_id" json:"plan_id"`
	Active          bool       `db:"active" json:"active"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	EndDate         *time.Time `db:"end_date" json:"end_date"`
	NextBillingDate *time.Time `db:"next_billing_date" json:"next_billing_date"`
	types.BaseModel
}

// New returns an active subscription starting at start and renewing at nextBillingDate
func New(userID, planID string, start, nextBillingDate time.Time) *Subscription {
	return &Subscription{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:          userID,
		PlanID:          planID,
		Active:          true,
		StartDate:       start,
		NextBillingDate: &nextBillingDate,
		BaseModel: types.BaseModel{
			CreatedAt: start,
			UpdatedAt: start,
		},
	}
}

// Deactivate ends the subscription at endDate
func (s *Subscription) Deactivate(endDate time.Time) {
	s.Active = false
	s.EndDate = &endDate
	s.UpdatedAt = endDate
}
