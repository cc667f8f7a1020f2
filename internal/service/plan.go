package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/cache"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	GetPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error)
	UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	TogglePlanActivation(ctx context.Context, id string) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, id string) error
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{
		ServiceParams: params,
	}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(s.Now())
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidatePlanCache(ctx, "")

	s.Logger.Infow("plan created", "plan_id", p.ID, "name", p.Name, "price", p.Price.String())
	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if id == "" {
		return nil, ierr.NewError("plan id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixPlan, id)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if p, ok := cached.(*plan.Plan); ok {
			return dto.NewPlanResponse(clonePlan(p)), nil
		}
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, clonePlan(p), 0)
	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixPlanList, planFilterKey(filter)...)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if page, ok := cached.(planPage); ok {
			return page.response(filter), nil
		}
	}

	var (
		plans []*plan.Plan
		count int
	)

	g := pool.New().WithContext(ctx).WithCancelOnError()
	g.Go(func(ctx context.Context) error {
		var err error
		plans, err = s.PlanRepo.List(ctx, filter)
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		count, err = s.PlanRepo.Count(ctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := planPage{plans: plans, total: count}
	s.Cache.Set(ctx, key, planPage{plans: lo.Map(plans, func(p *plan.Plan, _ int) *plan.Plan { return clonePlan(p) }), total: count}, 0)
	return page.response(filter), nil
}

func (s *planService) UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(p, s.Now())
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidatePlanCache(ctx, id)

	s.Logger.Infow("plan updated", "plan_id", p.ID)
	return dto.NewPlanResponse(p), nil
}

// TogglePlanActivation flips the plan's active flag. Existing subscriptions are not affected.
func (s *planService) TogglePlanActivation(ctx context.Context, id string) (*dto.PlanResponse, error) {
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Active = !p.Active
	p.UpdatedAt = s.Now()

	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidatePlanCache(ctx, id)

	s.Logger.Infow("plan activation toggled", "plan_id", p.ID, "active", p.Active)
	return dto.NewPlanResponse(p), nil
}

func (s *planService) DeletePlan(ctx context.Context, id string) error {
	if err := s.PlanRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePlanCache(ctx, id)

	s.Logger.Infow("plan deleted", "plan_id", id)
	return nil
}

// invalidatePlanCache drops the cached plan (when id is set) and every cached listing
func (s *planService) invalidatePlanCache(ctx context.Context, id string) {
	if id != "" {
		s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, id))
	}
	s.Cache.DeleteByPrefix(ctx, cache.PrefixPlanList)
}

func planFilterKey(f *types.PlanFilter) []interface{} {
	return []interface{}{
		f.GetPage(),
		f.GetLimit(),
		lo.FromPtr(f.Name),
		lo.FromPtr(f.BillingCycle),
		lo.Ternary(f.Active == nil, "any", lo.Ternary(lo.FromPtr(f.Active), "active", "inactive")),
	}
}

// planPage is the cached result of one list query
type planPage struct {
	plans []*plan.Plan
	total int
}

// response hands out copies so callers never share the cached plans
func (pp planPage) response(filter *types.PlanFilter) *dto.ListPlansResponse {
	items := lo.Map(pp.plans, func(p *plan.Plan, _ int) *dto.PlanResponse {
		return dto.NewPlanResponse(clonePlan(p))
	})
	resp := types.NewListResponse(items, pp.total, filter.GetPage(), filter.GetLimit())
	return &resp
}

func clonePlan(p *plan.Plan) *plan.Plan {
	c := *p
	c.Features = append(make([]string, 0, len(p.Features)), p.Features...)
	if p.Description != nil {
		c.Description = lo.ToPtr(*p.Description)
	}
	return &c
}
