package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/proration"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SubscriptionService drives a user's subscription through create, cancel and
// plan switches. Every transition that writes more than one row is atomic.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, userID string, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// GetUserSubscription returns the active subscription, or nil when the user has none
	GetUserSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)

	CancelSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)
	SwitchSubscription(ctx context.Context, userID string, req dto.SwitchSubscriptionRequest) (*dto.SubscriptionResponse, error)
	ListSubscriptionHistory(ctx context.Context, userID string) (*dto.ListSubscriptionsResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, userID string, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		sub *subscription.Subscription
		pay *payment.Payment
		p   *plan.Plan
	)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNoActiveSubscription(ctx, userID); err != nil {
			return err
		}

		var err error
		p, err = s.PlanRepo.Get(ctx, req.PlanID)
		if err != nil {
			return err
		}
		if !p.Active {
			return subscription.NewPlanInactiveError(p.ID)
		}

		now := s.Now()
		nextBillingDate, err := types.NextBillingDate(now, p.BillingCycle)
		if err != nil {
			return err
		}

		sub = subscription.New(userID, p.ID, now, nextBillingDate)
		pay = payment.NewCompleted(userID, sub.ID, p.Price, now)

		return s.SubRepo.CreateWithPayment(ctx, sub, pay)
	})
	if err != nil {
		s.Metrics.IncOperation(metrics.OperationCreate, metrics.OutcomeFailure)
		return nil, s.storeError(err, "Failed to create subscription", "user_id", userID, "plan_id", req.PlanID)
	}

	s.Metrics.IncOperation(metrics.OperationCreate, metrics.OutcomeSuccess)
	s.Metrics.ObservePayment(metrics.OperationCreate, pay.Amount)

	event := types.NewSubscriptionEvent(types.SubscriptionEventCreated, userID, sub.ID, p.ID, sub.StartDate)
	event.Amount = lo.ToPtr(pay.Amount)
	s.publishEvent(ctx, event)

	s.Logger.Infow("subscription created",
		"user_id", userID,
		"subscription_id", sub.ID,
		"plan_id", p.ID,
		"amount", pay.Amount.String(),
	)

	return dto.NewSubscriptionResponse(sub, p, pay, decimal.Zero), nil
}

func (s *subscriptionService) GetUserSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, s.storeError(err, "Failed to get subscription", "user_id", userID)
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, s.storeError(err, "Failed to get subscription", "user_id", userID)
	}

	pay, err := s.latestPayment(ctx, sub.ID)
	if err != nil {
		return nil, s.storeError(err, "Failed to get subscription", "user_id", userID)
	}

	return dto.NewSubscriptionResponse(sub, p, pay, decimal.Zero), nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	var (
		sub *subscription.Subscription
		p   *plan.Plan
		pay *payment.Payment
	)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.SubRepo.GetActiveByUser(ctx, userID)
		if err != nil {
			return err
		}

		now := s.Now()
		if err := s.SubRepo.Deactivate(ctx, sub.ID, now); err != nil {
			if ierr.IsNotFound(err) {
				// lost a race with another cancel or switch
				return subscription.NewNoActiveSubscriptionError(userID)
			}
			return err
		}
		sub.Deactivate(now)

		if p, err = s.PlanRepo.Get(ctx, sub.PlanID); err != nil {
			return err
		}
		pay, err = s.latestPayment(ctx, sub.ID)
		return err
	})
	if err != nil {
		s.Metrics.IncOperation(metrics.OperationCancel, metrics.OutcomeFailure)
		return nil, s.storeError(err, "Failed to cancel subscription", "user_id", userID)
	}

	s.Metrics.IncOperation(metrics.OperationCancel, metrics.OutcomeSuccess)
	s.publishEvent(ctx, types.NewSubscriptionEvent(types.SubscriptionEventCancelled, userID, sub.ID, sub.PlanID, *sub.EndDate))

	s.Logger.Infow("subscription cancelled",
		"user_id", userID,
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
	)

	return dto.NewSubscriptionResponse(sub, p, pay, decimal.Zero), nil
}

func (s *subscriptionService) SwitchSubscription(ctx context.Context, userID string, req dto.SwitchSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		current *subscription.Subscription
		next    *subscription.Subscription
		newPlan *plan.Plan
		pay     *payment.Payment
		result  *proration.Result
	)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		current, err = s.SubRepo.GetActiveByUser(ctx, userID)
		if err != nil {
			return err
		}

		newPlan, err = s.PlanRepo.Get(ctx, req.NewPlanID)
		if err != nil {
			return err
		}
		if !newPlan.Active {
			return subscription.NewPlanInactiveError(newPlan.ID)
		}

		currentPlan, err := s.PlanRepo.Get(ctx, current.PlanID)
		if err != nil {
			return err
		}

		now := s.Now()
		result = s.Calculator.Calculate(proration.ParamsFor(currentPlan, newPlan, current, now))

		nextBillingDate, err := types.NextBillingDate(now, newPlan.BillingCycle)
		if err != nil {
			return err
		}

		next = subscription.New(userID, newPlan.ID, now, nextBillingDate)
		pay = payment.NewCompleted(userID, next.ID, result.ChargeAmount(newPlan.Price), now)

		return s.SubRepo.SwitchAtomic(ctx, current.ID, now, next, pay)
	})
	if err != nil {
		s.Metrics.IncOperation(metrics.OperationSwitch, metrics.OutcomeFailure)
		return nil, s.storeError(err, "Failed to switch subscription", "user_id", userID, "new_plan_id", req.NewPlanID)
	}

	s.Metrics.IncOperation(metrics.OperationSwitch, metrics.OutcomeSuccess)
	s.Metrics.ObservePayment(metrics.OperationSwitch, pay.Amount)
	s.Metrics.ObserveProrationCredit(result.RemainingCredit)

	event := types.NewSubscriptionEvent(types.SubscriptionEventSwitched, userID, next.ID, newPlan.ID, next.StartDate)
	event.PreviousSubscriptionID = current.ID
	event.PreviousPlanID = current.PlanID
	event.Amount = lo.ToPtr(pay.Amount)
	event.RemainingCredit = lo.ToPtr(result.RemainingCredit)
	s.publishEvent(ctx, event)

	s.Logger.Infow("subscription switched",
		"user_id", userID,
		"previous_subscription_id", current.ID,
		"subscription_id", next.ID,
		"plan_id", newPlan.ID,
		"amount", pay.Amount.String(),
		"remaining_credit", result.RemainingCredit.String(),
		"remaining_days", result.RemainingDays,
		"total_days", result.TotalDays,
	)

	return dto.NewSubscriptionResponse(next, newPlan, pay, result.RemainingCredit), nil
}

func (s *subscriptionService) ListSubscriptionHistory(ctx context.Context, userID string) (*dto.ListSubscriptionsResponse, error) {
	subs, err := s.SubRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storeError(err, "Failed to list subscriptions", "user_id", userID)
	}

	payments, err := s.PaymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storeError(err, "Failed to list subscriptions", "user_id", userID)
	}

	plans, err := s.PlanRepo.ListByIDs(ctx, lo.Map(subs, func(sub *subscription.Subscription, _ int) string {
		return sub.PlanID
	}))
	if err != nil {
		return nil, s.storeError(err, "Failed to list subscriptions", "user_id", userID)
	}

	planByID := lo.KeyBy(plans, func(p *plan.Plan) string { return p.ID })

	// payments are newest first so the first one seen per subscription is the latest
	paymentBySub := make(map[string]*payment.Payment, len(subs))
	for _, pay := range payments {
		if _, ok := paymentBySub[pay.SubscriptionID]; !ok {
			paymentBySub[pay.SubscriptionID] = pay
		}
	}

	items := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		items = append(items, dto.NewSubscriptionResponse(sub, planByID[sub.PlanID], paymentBySub[sub.ID], decimal.Zero))
	}

	return &dto.ListSubscriptionsResponse{Items: items}, nil
}

func (s *subscriptionService) ensureNoActiveSubscription(ctx context.Context, userID string) error {
	existing, err := s.SubRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing != nil {
		return subscription.NewActiveSubscriptionExistsError(userID)
	}
	return nil
}

func (s *subscriptionService) latestPayment(ctx context.Context, subscriptionID string) (*payment.Payment, error) {
	pay, err := s.PaymentRepo.GetLatestBySubscription(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return pay, nil
}

// storeError lets domain outcomes through and hides everything else behind OperationFailed
func (s *subscriptionService) storeError(err error, hint string, keysAndValues ...any) error {
	if ierr.IsNotFound(err) ||
		ierr.IsAlreadyExists(err) ||
		ierr.IsInvalidOperation(err) ||
		ierr.IsValidation(err) {
		return err
	}

	s.Logger.Errorw("subscription store failure", append([]any{"error", err}, keysAndValues...)...)
	return subscription.NewOperationFailedError(err, hint)
}

func (s *subscriptionService) publishEvent(ctx context.Context, event *types.SubscriptionEvent) {
	if s.EventPublisher == nil {
		return
	}
	if err := s.EventPublisher.Publish(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish subscription event",
			"error", err,
			"event_name", event.EventName,
			"subscription_id", event.SubscriptionID,
		)
	}
}
