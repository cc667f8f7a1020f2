package service

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/testutil"
	"github.com/flexprice/subscription-billing/internal/types"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
	clock   time.Time
	userID  string
	basic   *plan.Plan
	pro     *plan.Plan
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.clock = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.service = NewSubscriptionService(newTestServiceParams(&s.BaseServiceTestSuite, func() time.Time {
		return s.clock
	}))

	s.userID = s.CreateTestUser("subscriber@example.com").ID
	s.basic = s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)
	s.pro = s.CreateTestPlan("Pro", "50", types.BILLING_CYCLE_MONTHLY)
}

func (s *SubscriptionServiceSuite) subscribe(p *plan.Plan) *dto.SubscriptionResponse {
	resp, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: p.ID})
	s.Require().NoError(err)
	return resp
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	resp := s.subscribe(s.basic)

	s.True(resp.Active)
	s.Equal(s.userID, resp.UserID)
	s.True(resp.Amount.Equal(decimal.NewFromInt(30)))
	s.True(resp.RemainingCredit.IsZero())
	s.Equal(s.clock, resp.StartDate)
	s.Nil(resp.EndDate)
	s.Require().NotNil(resp.NextBillingDate)
	s.Equal(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), *resp.NextBillingDate)
	s.Require().NotNil(resp.Plan)
	s.Equal(s.basic.ID, resp.Plan.ID)

	payments, err := s.GetStores().PaymentRepo.ListByUser(s.GetContext(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(resp.ID, payments[0].SubscriptionID)
	s.Equal(types.PaymentStatusCompleted, payments[0].Status)
	s.True(payments[0].Amount.Equal(decimal.NewFromInt(30)))

	events := s.GetPublisher().EventsNamed(types.SubscriptionEventCreated)
	s.Require().Len(events, 1)
	s.Equal(resp.ID, events[0].SubscriptionID)
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_Errors() {
	inactive := s.CreateTestPlan("Legacy", "10", types.BILLING_CYCLE_YEARLY)
	inactive.Active = false
	s.Require().NoError(s.GetStores().PlanRepo.Update(s.GetContext(), inactive))

	s.Run("missing plan id", func() {
		_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{})
		s.True(ierr.IsValidation(err))
	})

	s.Run("unknown plan", func() {
		_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: "plan_missing"})
		s.True(ierr.IsNotFound(err))
	})

	s.Run("inactive plan", func() {
		_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: inactive.ID})
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Equal(0, s.GetSubscriptionStore().ActiveCount(s.userID))
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_Conflict() {
	s.subscribe(s.basic)

	_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: s.pro.ID})
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))
	s.Equal(http.StatusConflict, ierr.HTTPStatusFromErr(err))
	s.Equal(1, s.GetSubscriptionStore().ActiveCount(s.userID))

	expected := `
# HELP subscription_operations_total Subscription lifecycle operations by outcome
# TYPE subscription_operations_total counter
subscription_operations_total{operation="create",outcome="failure"} 1
subscription_operations_total{operation="create",outcome="success"} 1
`
	s.NoError(promtest.GatherAndCompare(s.GetRegistry(), strings.NewReader(expected), "subscription_operations_total"))
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_ConcurrentRequests() {
	const attempts = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: s.basic.ID})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case ierr.IsAlreadyExists(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(attempts-1, conflicts)
	s.Equal(1, s.GetSubscriptionStore().ActiveCount(s.userID))

	payments, err := s.GetStores().PaymentRepo.ListByUser(s.GetContext(), s.userID)
	s.Require().NoError(err)
	s.Len(payments, 1)
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_PaymentFailureRollsBack() {
	s.GetSubscriptionStore().InjectFailure(testutil.FailurePaymentInsert, errors.New("connection reset by peer"))

	_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: s.basic.ID})
	s.Require().Error(err)
	s.True(ierr.IsOperationFailed(err))
	s.False(ierr.IsDatabase(err))
	s.Equal("Failed to create subscription", ierr.GetDisplayMessage(err))

	s.Equal(0, s.GetSubscriptionStore().ActiveCount(s.userID))
	s.Empty(s.GetPublisher().GetEvents())
}

func (s *SubscriptionServiceSuite) TestCreateSubscription_InvalidPaymentIsNotRecorded() {
	// the in-memory plan store does not check prices
	broken := s.CreateTestPlan("Legacy", "-5", types.BILLING_CYCLE_MONTHLY)

	_, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: broken.ID})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal("Amount must be zero or greater", ierr.GetDisplayMessage(err))

	s.Equal(0, s.GetSubscriptionStore().ActiveCount(s.userID))
	payments, err := s.GetStores().PaymentRepo.ListByUser(s.GetContext(), s.userID)
	s.Require().NoError(err)
	s.Empty(payments)
}

func (s *SubscriptionServiceSuite) TestGetUserSubscription() {
	s.Run("none", func() {
		resp, err := s.service.GetUserSubscription(s.GetContext(), s.userID)
		s.NoError(err)
		s.Nil(resp)
	})

	created := s.subscribe(s.basic)

	s.Run("active", func() {
		resp, err := s.service.GetUserSubscription(s.GetContext(), s.userID)
		s.Require().NoError(err)
		s.Require().NotNil(resp)
		s.Equal(created.ID, resp.ID)
		s.True(resp.Amount.Equal(decimal.NewFromInt(30)))
		s.True(resp.RemainingCredit.IsZero())
		s.Equal("Basic", resp.Plan.Name)
	})

	s.Run("store failure", func() {
		s.GetSubscriptionStore().InjectFailure(testutil.FailureActiveLookup, errors.New("timeout"))
		_, err := s.service.GetUserSubscription(s.GetContext(), s.userID)
		s.True(ierr.IsOperationFailed(err))
	})
}

func (s *SubscriptionServiceSuite) TestCancelSubscription() {
	created := s.subscribe(s.basic)
	s.clock = s.clock.Add(72 * time.Hour)

	resp, err := s.service.CancelSubscription(s.GetContext(), s.userID)
	s.Require().NoError(err)
	s.Equal(created.ID, resp.ID)
	s.False(resp.Active)
	s.Require().NotNil(resp.EndDate)
	s.Equal(s.clock, *resp.EndDate)

	current, err := s.service.GetUserSubscription(s.GetContext(), s.userID)
	s.NoError(err)
	s.Nil(current)

	s.Len(s.GetPublisher().EventsNamed(types.SubscriptionEventCancelled), 1)

	s.Run("second cancel", func() {
		_, err := s.service.CancelSubscription(s.GetContext(), s.userID)
		s.Require().Error(err)
		s.True(ierr.IsNotFound(err))
	})

	s.Run("subscribe again after cancel", func() {
		again := s.subscribe(s.pro)
		s.True(again.Active)
		s.NotEqual(created.ID, again.ID)
	})
}

func (s *SubscriptionServiceSuite) TestCancelSubscription_StoreFailure() {
	s.subscribe(s.basic)
	s.GetSubscriptionStore().InjectFailure(testutil.FailureDeactivate, errors.New("disk full"))

	_, err := s.service.CancelSubscription(s.GetContext(), s.userID)
	s.Require().Error(err)
	s.True(ierr.IsOperationFailed(err))
	s.Equal("Failed to cancel subscription", ierr.GetDisplayMessage(err))
	s.Equal(1, s.GetSubscriptionStore().ActiveCount(s.userID))
}

func (s *SubscriptionServiceSuite) TestSwitchSubscription_Prorates() {
	original := s.subscribe(s.basic)

	// half way through a 30 day cycle
	s.clock = time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)

	resp, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: s.pro.ID})
	s.Require().NoError(err)

	s.True(resp.Active)
	s.NotEqual(original.ID, resp.ID)
	s.Equal(s.pro.ID, resp.Plan.ID)
	s.True(resp.RemainingCredit.Equal(decimal.NewFromInt(15)), "credit %s", resp.RemainingCredit)
	s.True(resp.Amount.Equal(decimal.NewFromInt(35)), "amount %s", resp.Amount)
	s.Equal(s.clock, resp.StartDate)
	s.Equal(time.Date(2024, time.May, 16, 0, 0, 0, 0, time.UTC), *resp.NextBillingDate)

	old, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), original.ID)
	s.Require().NoError(err)
	s.False(old.Active)
	s.Equal(s.clock, *old.EndDate)
	s.Equal(1, s.GetSubscriptionStore().ActiveCount(s.userID))

	latest, err := s.GetStores().PaymentRepo.GetLatestBySubscription(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.True(latest.Amount.Equal(decimal.NewFromInt(35)))

	events := s.GetPublisher().EventsNamed(types.SubscriptionEventSwitched)
	s.Require().Len(events, 1)
	s.Equal(original.ID, events[0].PreviousSubscriptionID)
	s.Equal(s.basic.ID, events[0].PreviousPlanID)
	s.True(events[0].RemainingCredit.Equal(decimal.NewFromInt(15)))
}

func (s *SubscriptionServiceSuite) TestSwitchSubscription_CreditExceedsNewPrice() {
	premium := s.CreateTestPlan("Premium", "100", types.BILLING_CYCLE_MONTHLY)
	starter := s.CreateTestPlan("Starter", "20", types.BILLING_CYCLE_MONTHLY)

	s.subscribe(premium)
	s.clock = time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)

	resp, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: starter.ID})
	s.Require().NoError(err)

	// credit 50 covers the whole new price so the plan price is charged
	s.True(resp.RemainingCredit.Equal(decimal.NewFromInt(50)))
	s.True(resp.Amount.Equal(decimal.NewFromInt(20)))
}

func (s *SubscriptionServiceSuite) TestSwitchSubscription_Errors() {
	s.Run("no active subscription", func() {
		_, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: s.pro.ID})
		s.True(ierr.IsNotFound(err))

		subs, err := s.GetStores().SubscriptionRepo.ListByUser(s.GetContext(), s.userID)
		s.Require().NoError(err)
		s.Empty(subs)
	})

	original := s.subscribe(s.basic)

	inactive := s.CreateTestPlan("Retired", "70", types.BILLING_CYCLE_MONTHLY)
	inactive.Active = false
	s.Require().NoError(s.GetStores().PlanRepo.Update(s.GetContext(), inactive))

	s.Run("unknown plan", func() {
		_, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: "plan_missing"})
		s.True(ierr.IsNotFound(err))
	})

	s.Run("inactive plan", func() {
		_, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: inactive.ID})
		s.True(ierr.IsInvalidOperation(err))
	})

	current, err := s.service.GetUserSubscription(s.GetContext(), s.userID)
	s.Require().NoError(err)
	s.Equal(original.ID, current.ID)
}

func (s *SubscriptionServiceSuite) TestSwitchSubscription_FailureKeepsOriginalActive() {
	tests := []struct {
		name  string
		point testutil.FailurePoint
	}{
		{name: "after deactivate before insert", point: testutil.FailureBeforeSwitchInsert},
		{name: "payment insert", point: testutil.FailurePaymentInsert},
	}

	original := s.subscribe(s.basic)
	s.clock = s.clock.Add(5 * 24 * time.Hour)

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.GetSubscriptionStore().InjectFailure(tt.point, errors.New("connection lost"))

			_, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: s.pro.ID})
			s.Require().Error(err)
			s.True(ierr.IsOperationFailed(err))
			s.Equal("Failed to switch subscription", ierr.GetDisplayMessage(err))

			current, err := s.service.GetUserSubscription(s.GetContext(), s.userID)
			s.Require().NoError(err)
			s.Require().NotNil(current)
			s.Equal(original.ID, current.ID)
			s.True(current.Active)
			s.Nil(current.EndDate)

			subs, err := s.GetStores().SubscriptionRepo.ListByUser(s.GetContext(), s.userID)
			s.Require().NoError(err)
			s.Len(subs, 1)

			payments, err := s.GetStores().PaymentRepo.ListByUser(s.GetContext(), s.userID)
			s.Require().NoError(err)
			s.Len(payments, 1)
		})
	}

	s.Empty(s.GetPublisher().EventsNamed(types.SubscriptionEventSwitched))

	s.Run("succeeds once the store recovers", func() {
		resp, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: s.pro.ID})
		s.Require().NoError(err)
		s.Equal(s.pro.ID, resp.Plan.ID)
	})
}

func (s *SubscriptionServiceSuite) TestSwitchSubscription_ConcurrentSwitches() {
	s.subscribe(s.basic)
	s.clock = s.clock.Add(10 * 24 * time.Hour)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: s.pro.ID})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.True(ierr.IsAlreadyExists(err), "unexpected error: %v", err)
		}
	}
	s.Equal(1, s.GetSubscriptionStore().ActiveCount(s.userID))
}

func (s *SubscriptionServiceSuite) TestPublishFailureDoesNotFailOperation() {
	s.GetPublisher().FailWith(errors.New("broker unavailable"))

	resp, err := s.service.CreateSubscription(s.GetContext(), s.userID, dto.CreateSubscriptionRequest{PlanID: s.basic.ID})
	s.Require().NoError(err)
	s.True(resp.Active)
}

func (s *SubscriptionServiceSuite) TestListSubscriptionHistory() {
	first := s.subscribe(s.basic)

	s.clock = time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)
	second, err := s.service.SwitchSubscription(s.GetContext(), s.userID, dto.SwitchSubscriptionRequest{NewPlanID: s.pro.ID})
	s.Require().NoError(err)

	history, err := s.service.ListSubscriptionHistory(s.GetContext(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(history.Items, 2)

	s.Equal(second.ID, history.Items[0].ID)
	s.True(history.Items[0].Active)
	s.True(history.Items[0].Amount.Equal(decimal.NewFromInt(35)))
	s.Equal("Pro", history.Items[0].Plan.Name)

	s.Equal(first.ID, history.Items[1].ID)
	s.False(history.Items[1].Active)
	s.True(history.Items[1].Amount.Equal(decimal.NewFromInt(30)))
	s.Equal("Basic", history.Items[1].Plan.Name)
}
