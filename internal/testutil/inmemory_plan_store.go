package testutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

var _ plan.Repository = (*InMemoryPlanStore)(nil)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]

	// inUse reports whether a subscription references the plan
	inUse func(planID string) bool
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

// WithSubscriptions makes Delete refuse plans referenced by subs, like the foreign key does
func (s *InMemoryPlanStore) WithSubscriptions(subs *InMemorySubscriptionStore) *InMemoryPlanStore {
	s.inUse = subs.ReferencesPlan
	return s
}

// planFilterFn implements filtering logic for plans
func planFilterFn(ctx context.Context, p *plan.Plan, filter interface{}) bool {
	if p == nil {
		return false
	}

	f, ok := filter.(*types.PlanFilter)
	if !ok {
		return true // No filter applied
	}

	if f.Name != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*f.Name)) {
		return false
	}

	if f.BillingCycle != nil && p.BillingCycle != *f.BillingCycle {
		return false
	}

	if f.Active != nil && p.Active != *f.Active {
		return false
	}

	return true
}

// planSortFn orders newest first, ties broken by id like the SQL query
func planSortFn(i, j *plan.Plan) bool {
	if i == nil || j == nil {
		return false
	}
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func copyPlan(p *plan.Plan) *plan.Plan {
	c := *p
	c.Features = append([]string{}, p.Features...)
	return &c
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return fmt.Errorf("plan cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Plan with ID %s was not found", id).
			WithReportableDetails(map[string]any{"plan_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) ListByIDs(ctx context.Context, ids []string) ([]*plan.Plan, error) {
	plans := make([]*plan.Plan, 0, len(ids))
	for _, id := range lo.Uniq(ids) {
		p, err := s.InMemoryStore.Get(ctx, id)
		if err != nil {
			continue
		}
		plans = append(plans, copyPlan(p))
	}
	return plans, nil
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	plans, err := s.InMemoryStore.List(ctx, filter, planFilterFn, planSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(plans, func(p *plan.Plan, _ int) *plan.Plan { return copyPlan(p) }), nil
}

func (s *InMemoryPlanStore) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, planFilterFn)
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return fmt.Errorf("plan cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, p.ID, copyPlan(p)); err != nil {
		return ierr.WithError(err).
			WithHintf("Plan with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryPlanStore) Delete(ctx context.Context, id string) error {
	if s.inUse != nil && s.inUse(id) {
		return ierr.NewError("plan is referenced by subscriptions").
			WithHint("Plan has subscriptions and cannot be deleted, deactivate it instead").
			WithReportableDetails(map[string]any{"plan_id": id}).
			Mark(ierr.ErrInvalidOperation)
	}
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.WithError(err).
			WithHintf("Plan with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
