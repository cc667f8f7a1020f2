package dto

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentSubscription is the subscription as embedded in a payment view
type PaymentSubscription struct {
	ID        string       `json:"id"`
	Active    bool         `json:"active"`
	StartDate time.Time    `json:"start_date"`
	EndDate   *time.Time   `json:"end_date"`
	Plan      *PlanSummary `json:"plan"`
}

type PaymentResponse struct {
	ID        string              `json:"id"`
	Reference string              `json:"reference"`
	Amount    decimal.Decimal     `json:"amount" swaggertype:"string"`
	Status    types.PaymentStatus `json:"status"`
	// LastPaid is when the payment completed, nil for payments that did not
	LastPaid     *time.Time           `json:"last_paid"`
	Subscription *PaymentSubscription `json:"subscription"`
	CreatedAt    time.Time            `json:"created_at"`
}

func NewPaymentResponse(pay *payment.Payment, sub *subscription.Subscription, p *plan.Plan) *PaymentResponse {
	resp := &PaymentResponse{
		ID:        pay.ID,
		Reference: pay.Reference,
		Amount:    pay.Amount,
		Status:    pay.Status,
		CreatedAt: pay.CreatedAt,
	}
	if pay.Status == types.PaymentStatusCompleted {
		paid := pay.CreatedAt
		resp.LastPaid = &paid
	}
	if sub != nil {
		resp.Subscription = &PaymentSubscription{
			ID:        sub.ID,
			Active:    sub.Active,
			StartDate: sub.StartDate,
			EndDate:   sub.EndDate,
			Plan:      NewPlanSummary(p),
		}
	}
	return resp
}

type ListPaymentsResponse struct {
	Items []*PaymentResponse `json:"items"`
}
