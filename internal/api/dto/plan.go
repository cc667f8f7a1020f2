package dto

import (
	"strings"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name         string             `json:"name" validate:"required"`
	Description  *string            `json:"description,omitempty"`
	Price        decimal.Decimal    `json:"price" swaggertype:"string" validate:"non_negative_decimal"`
	BillingCycle types.BillingCycle `json:"billing_cycle" validate:"required,billing_cycle"`
	Features     []string           `json:"features"`
	// Active defaults to true
	Active *bool `json:"active,omitempty"`
}

func (r *CreatePlanRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validator.ValidateRequest(r)
}

func (r *CreatePlanRequest) ToPlan(now time.Time) *plan.Plan {
	return &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price.Round(types.DEFAULT_FLOATING_PRECISION),
		BillingCycle: r.BillingCycle,
		Active:       lo.FromPtrOr(r.Active, true),
		Features:     lo.Ternary(r.Features == nil, []string{}, r.Features),
		BaseModel: types.BaseModel{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// UpdatePlanRequest is a partial update, nil fields are left unchanged
type UpdatePlanRequest struct {
	Name         *string             `json:"name,omitempty" validate:"omitempty,min=1"`
	Description  *string             `json:"description,omitempty"`
	Price        *decimal.Decimal    `json:"price,omitempty" swaggertype:"string"`
	BillingCycle *types.BillingCycle `json:"billing_cycle,omitempty" validate:"omitempty,billing_cycle"`
	Features     *[]string           `json:"features,omitempty"`
	Active       *bool               `json:"active,omitempty"`
}

func (r *UpdatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ierr.NewError("plan name is empty").
			WithHint("Plan name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if r.Price != nil && r.Price.IsNegative() {
		return ierr.NewError("invalid plan price").
			WithHint("Price must be zero or greater").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Apply copies the set fields onto p
func (r *UpdatePlanRequest) Apply(p *plan.Plan, now time.Time) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.Price != nil {
		p.Price = r.Price.Round(types.DEFAULT_FLOATING_PRECISION)
	}
	if r.BillingCycle != nil {
		p.BillingCycle = *r.BillingCycle
	}
	if r.Features != nil {
		p.Features = lo.Ternary(*r.Features == nil, []string{}, *r.Features)
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	p.UpdatedAt = now
}

type PlanResponse struct {
	*plan.Plan
}

func NewPlanResponse(p *plan.Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{Plan: p}
}

// ListPlansResponse represents the response for listing plans
type ListPlansResponse = types.ListResponse[*PlanResponse]

// PlanSummary is the plan as embedded in subscription and payment views
type PlanSummary struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  *string            `json:"description"`
	Price        decimal.Decimal    `json:"price" swaggertype:"string"`
	BillingCycle types.BillingCycle `json:"billing_cycle"`
	Features     []string           `json:"features"`
}

func NewPlanSummary(p *plan.Plan) *PlanSummary {
	if p == nil {
		return nil
	}
	return &PlanSummary{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		BillingCycle: p.BillingCycle,
		Features:     lo.Ternary(p.Features == nil, []string{}, p.Features),
	}
}
