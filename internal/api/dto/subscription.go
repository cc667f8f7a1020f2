package dto

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	PlanID string `json:"plan_id" binding:"required" validate:"required"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type SwitchSubscriptionRequest struct {
	NewPlanID string `json:"new_plan_id" binding:"required" validate:"required"`
}

func (r *SwitchSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SubscriptionResponse is a subscription with its latest payment amount, the
// credit carried over from a switch and the plan it is on
type SubscriptionResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Active          bool            `json:"active"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	NextBillingDate *time.Time      `json:"next_billing_date"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string"`
	RemainingCredit decimal.Decimal `json:"remaining_credit" swaggertype:"string"`
	Plan            *PlanSummary    `json:"plan"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewSubscriptionResponse builds the view, pay may be nil when the row has no payment
func NewSubscriptionResponse(
	sub *subscription.Subscription,
	p *plan.Plan,
	pay *payment.Payment,
	remainingCredit decimal.Decimal,
) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:              sub.ID,
		UserID:          sub.UserID,
		Active:          sub.Active,
		StartDate:       sub.StartDate,
		EndDate:         sub.EndDate,
		NextBillingDate: sub.NextBillingDate,
		Amount:          decimal.Zero,
		RemainingCredit: remainingCredit,
		Plan:            NewPlanSummary(p),
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}
	if pay != nil {
		resp.Amount = pay.Amount
	}
	return resp
}

type ListSubscriptionsResponse struct {
	Items []*SubscriptionResponse `json:"items"`
}
