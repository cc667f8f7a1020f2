package service

import (
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/testutil"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PlanService
}

func TestPlanService(t *testing.T) {
	suite.Run(t, new(PlanServiceSuite))
}

func (s *PlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPlanService(newTestServiceParams(&s.BaseServiceTestSuite, nil))
}

func (s *PlanServiceSuite) TestCreatePlan() {
	s.Run("defaults to active", func() {
		resp, err := s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
			Name:         "  Basic  ",
			Price:        decimal.RequireFromString("9.999"),
			BillingCycle: types.BILLING_CYCLE_MONTHLY,
			Features:     []string{"reports"},
		})
		s.Require().NoError(err)
		s.Equal("Basic", resp.Name)
		s.True(resp.Active)
		s.True(resp.Price.Equal(decimal.RequireFromString("10")))
		s.Equal([]string{"reports"}, resp.Features)
	})

	s.Run("explicitly inactive", func() {
		resp, err := s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
			Name:         "Hidden",
			Price:        decimal.NewFromInt(5),
			BillingCycle: types.BILLING_CYCLE_YEARLY,
			Active:       lo.ToPtr(false),
		})
		s.Require().NoError(err)
		s.False(resp.Active)
		s.NotNil(resp.Features)
	})

	invalid := []struct {
		name string
		req  dto.CreatePlanRequest
	}{
		{
			name: "missing name",
			req:  dto.CreatePlanRequest{Price: decimal.NewFromInt(1), BillingCycle: types.BILLING_CYCLE_MONTHLY},
		},
		{
			name: "negative price",
			req:  dto.CreatePlanRequest{Name: "Neg", Price: decimal.NewFromInt(-1), BillingCycle: types.BILLING_CYCLE_MONTHLY},
		},
		{
			name: "unknown billing cycle",
			req:  dto.CreatePlanRequest{Name: "Weekly", Price: decimal.NewFromInt(1), BillingCycle: "WEEKLY"},
		},
	}
	for _, tt := range invalid {
		s.Run(tt.name, func() {
			_, err := s.service.CreatePlan(s.GetContext(), tt.req)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *PlanServiceSuite) TestGetPlan() {
	p := s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)

	resp, err := s.service.GetPlan(s.GetContext(), p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, resp.ID)

	_, err = s.service.GetPlan(s.GetContext(), "plan_missing")
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetPlan(s.GetContext(), "")
	s.True(ierr.IsValidation(err))
}

func (s *PlanServiceSuite) TestGetPlan_CacheInvalidatedOnUpdate() {
	p := s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)

	_, err := s.service.GetPlan(s.GetContext(), p.ID)
	s.Require().NoError(err)

	_, err = s.service.UpdatePlan(s.GetContext(), p.ID, dto.UpdatePlanRequest{
		Price: lo.ToPtr(decimal.NewFromInt(45)),
	})
	s.Require().NoError(err)

	resp, err := s.service.GetPlan(s.GetContext(), p.ID)
	s.Require().NoError(err)
	s.True(resp.Price.Equal(decimal.NewFromInt(45)))
}

func (s *PlanServiceSuite) TestGetPlans() {
	base := s.GetNow()
	for i, name := range []string{"Starter", "Team", "Business", "Enterprise"} {
		p := s.CreateTestPlan(name, "10", types.BILLING_CYCLE_MONTHLY)
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if name == "Enterprise" {
			p.BillingCycle = types.BILLING_CYCLE_YEARLY
			p.Active = false
		}
		s.Require().NoError(s.GetStores().PlanRepo.Update(s.GetContext(), p))
	}

	s.Run("newest first with pagination", func() {
		filter := types.NewPlanFilter()
		filter.Limit = lo.ToPtr(3)

		resp, err := s.service.GetPlans(s.GetContext(), filter)
		s.Require().NoError(err)
		s.Len(resp.Items, 3)
		s.Equal("Enterprise", resp.Items[0].Name)
		s.Equal(4, resp.Meta.TotalItems)
		s.Equal(2, resp.Meta.TotalPages)
		s.True(resp.Meta.HasNextPage)
		s.False(resp.Meta.HasPreviousPage)

		filter.Page = lo.ToPtr(2)
		resp, err = s.service.GetPlans(s.GetContext(), filter)
		s.Require().NoError(err)
		s.Len(resp.Items, 1)
		s.Equal("Starter", resp.Items[0].Name)
		s.True(resp.Meta.HasPreviousPage)
	})

	s.Run("filters", func() {
		filter := types.NewPlanFilter()
		filter.Name = lo.ToPtr("TEAM")
		resp, err := s.service.GetPlans(s.GetContext(), filter)
		s.Require().NoError(err)
		s.Require().Len(resp.Items, 1)
		s.Equal("Team", resp.Items[0].Name)

		filter = types.NewPlanFilter()
		filter.Active = lo.ToPtr(true)
		filter.BillingCycle = lo.ToPtr(types.BILLING_CYCLE_MONTHLY)
		resp, err = s.service.GetPlans(s.GetContext(), filter)
		s.Require().NoError(err)
		s.Equal(3, resp.Meta.TotalItems)
	})

	s.Run("nil filter uses defaults", func() {
		resp, err := s.service.GetPlans(s.GetContext(), nil)
		s.Require().NoError(err)
		s.Equal(1, resp.Meta.Page)
		s.Equal(types.FILTER_DEFAULT_LIMIT, resp.Meta.Limit)
	})

	s.Run("invalid limit", func() {
		filter := types.NewPlanFilter()
		filter.Limit = lo.ToPtr(500)
		_, err := s.service.GetPlans(s.GetContext(), filter)
		s.True(ierr.IsValidation(err))
	})
}

func (s *PlanServiceSuite) TestGetPlans_CacheInvalidatedOnCreate() {
	s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)

	resp, err := s.service.GetPlans(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Equal(1, resp.Meta.TotalItems)

	_, err = s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		Name:         "Pro",
		Price:        decimal.NewFromInt(50),
		BillingCycle: types.BILLING_CYCLE_MONTHLY,
	})
	s.Require().NoError(err)

	resp, err = s.service.GetPlans(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Equal(2, resp.Meta.TotalItems)
}

func (s *PlanServiceSuite) TestGetPlans_CachedPagesAreNotShared() {
	s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)

	first, err := s.service.GetPlans(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Require().Len(first.Items, 1)

	first.Items[0].Name = "Changed by caller"
	first.Items[0].Features = append(first.Items[0].Features, "leaked")
	first.Items = append(first.Items, nil)
	first.Meta.TotalItems = 99

	second, err := s.service.GetPlans(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Require().Len(second.Items, 1)
	s.Equal("Basic", second.Items[0].Name)
	s.Empty(second.Items[0].Features)
	s.Equal(1, second.Meta.TotalItems)
	s.NotSame(first, second)
}

func (s *PlanServiceSuite) TestUpdatePlan() {
	p := s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)

	resp, err := s.service.UpdatePlan(s.GetContext(), p.ID, dto.UpdatePlanRequest{
		Name:     lo.ToPtr("Basic Plus"),
		Features: lo.ToPtr([]string{"a", "b"}),
	})
	s.Require().NoError(err)
	s.Equal("Basic Plus", resp.Name)
	s.Equal([]string{"a", "b"}, resp.Features)
	s.True(resp.Price.Equal(decimal.NewFromInt(30)))

	_, err = s.service.UpdatePlan(s.GetContext(), "plan_missing", dto.UpdatePlanRequest{Name: lo.ToPtr("x")})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.UpdatePlan(s.GetContext(), p.ID, dto.UpdatePlanRequest{Name: lo.ToPtr("   ")})
	s.True(ierr.IsValidation(err))
}

func (s *PlanServiceSuite) TestTogglePlanActivation() {
	p := s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)

	resp, err := s.service.TogglePlanActivation(s.GetContext(), p.ID)
	s.Require().NoError(err)
	s.False(resp.Active)

	resp, err = s.service.TogglePlanActivation(s.GetContext(), p.ID)
	s.Require().NoError(err)
	s.True(resp.Active)

	_, err = s.service.TogglePlanActivation(s.GetContext(), "plan_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *PlanServiceSuite) TestTogglePlanActivation_KeepsExistingSubscriptions() {
	p := s.CreateTestPlan("Basic", "30", types.BILLING_CYCLE_MONTHLY)
	u := s.CreateTestUser("member@example.com")

	subs := NewSubscriptionService(newTestServiceParams(&s.BaseServiceTestSuite, nil))
	created, err := subs.CreateSubscription(s.GetContext(), u.ID, dto.CreateSubscriptionRequest{PlanID: p.ID})
	s.Require().NoError(err)

	_, err = s.service.TogglePlanActivation(s.GetContext(), p.ID)
	s.Require().NoError(err)

	current, err := subs.GetUserSubscription(s.GetContext(), u.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, current.ID)
	s.True(current.Active)
}

func (s *PlanServiceSuite) TestDeletePlan() {
	unused := s.CreateTestPlan("Unused", "5", types.BILLING_CYCLE_MONTHLY)
	s.Require().NoError(s.service.DeletePlan(s.GetContext(), unused.ID))

	_, err := s.service.GetPlan(s.GetContext(), unused.ID)
	s.True(ierr.IsNotFound(err))

	s.True(ierr.IsNotFound(s.service.DeletePlan(s.GetContext(), unused.ID)))

	used := s.CreateTestPlan("Used", "5", types.BILLING_CYCLE_MONTHLY)
	u := s.CreateTestUser("member@example.com")
	subs := NewSubscriptionService(newTestServiceParams(&s.BaseServiceTestSuite, nil))
	_, err = subs.CreateSubscription(s.GetContext(), u.ID, dto.CreateSubscriptionRequest{PlanID: used.ID})
	s.Require().NoError(err)

	err = s.service.DeletePlan(s.GetContext(), used.ID)
	s.True(ierr.IsInvalidOperation(err))
}
