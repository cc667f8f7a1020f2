package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

type PaymentService interface {
	ListPayments(ctx context.Context, userID string) (*dto.ListPaymentsResponse, error)
	GetPayment(ctx context.Context, userID, id string) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
	}
}

func (s *paymentService) ListPayments(ctx context.Context, userID string) (*dto.ListPaymentsResponse, error) {
	payments, err := s.PaymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	subs, err := s.SubRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	subByID := lo.KeyBy(subs, func(sub *subscription.Subscription) string { return sub.ID })

	plans, err := s.PlanRepo.ListByIDs(ctx, lo.Map(subs, func(sub *subscription.Subscription, _ int) string {
		return sub.PlanID
	}))
	if err != nil {
		return nil, err
	}
	planByID := lo.KeyBy(plans, func(p *plan.Plan) string { return p.ID })

	items := lo.Map(payments, func(pay *payment.Payment, _ int) *dto.PaymentResponse {
		sub := subByID[pay.SubscriptionID]
		var p *plan.Plan
		if sub != nil {
			p = planByID[sub.PlanID]
		}
		return dto.NewPaymentResponse(pay, sub, p)
	})

	return &dto.ListPaymentsResponse{Items: items}, nil
}

// GetPayment returns a payment of the user. Payments of other users are reported as not found.
func (s *paymentService) GetPayment(ctx context.Context, userID, id string) (*dto.PaymentResponse, error) {
	pay, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if pay.UserID != userID {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", id).
			WithReportableDetails(map[string]interface{}{
				"payment_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	sub, err := s.SubRepo.Get(ctx, pay.SubscriptionID)
	if err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	return dto.NewPaymentResponse(pay, sub, p), nil
}
