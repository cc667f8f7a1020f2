package types

import (
	"fmt"

	"github.com/samber/lo"
)

const (
	FILTER_DEFAULT_PAGE  = 1
	FILTER_DEFAULT_LIMIT = 10
	FILTER_MIN_PAGE      = 1
	FILTER_MIN_LIMIT     = 1
	FILTER_MAX_LIMIT     = 100

	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// PageFilter is page based pagination shared by list endpoints
type PageFilter struct {
	Page  *int `json:"page,omitempty" form:"page" validate:"omitempty,min=1"`
	Limit *int `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=100"`
}

func NewDefaultPageFilter() *PageFilter {
	return &PageFilter{
		Page:  lo.ToPtr(FILTER_DEFAULT_PAGE),
		Limit: lo.ToPtr(FILTER_DEFAULT_LIMIT),
	}
}

// GetPage returns the requested page, defaulting to the first one
func (f PageFilter) GetPage() int {
	if f.Page == nil || *f.Page < FILTER_MIN_PAGE {
		return FILTER_DEFAULT_PAGE
	}
	return *f.Page
}

// GetLimit returns the page size bounded to [FILTER_MIN_LIMIT, FILTER_MAX_LIMIT]
func (f PageFilter) GetLimit() int {
	if f.Limit == nil || *f.Limit < FILTER_MIN_LIMIT {
		return FILTER_DEFAULT_LIMIT
	}
	return min(*f.Limit, FILTER_MAX_LIMIT)
}

func (f PageFilter) GetOffset() int {
	return (f.GetPage() - 1) * f.GetLimit()
}

func (f PageFilter) Validate() error {
	if f.Page != nil && *f.Page < FILTER_MIN_PAGE {
		return fmt.Errorf("page must be at least %d", FILTER_MIN_PAGE)
	}
	if f.Limit != nil && (*f.Limit < FILTER_MIN_LIMIT || *f.Limit > FILTER_MAX_LIMIT) {
		return fmt.Errorf("limit must be between %d and %d", FILTER_MIN_LIMIT, FILTER_MAX_LIMIT)
	}
	return nil
}

// PlanFilter narrows the plan catalogue listing
type PlanFilter struct {
	PageFilter

	// Name matches plans whose name contains the value, case insensitive
	Name         *string       `json:"name,omitempty" form:"name"`
	BillingCycle *BillingCycle `json:"billing_cycle,omitempty" form:"billing_cycle"`
	Active       *bool         `json:"active,omitempty" form:"active"`
}

func NewPlanFilter() *PlanFilter {
	return &PlanFilter{
		PageFilter: *NewDefaultPageFilter(),
	}
}

func (f PlanFilter) Validate() error {
	if err := f.PageFilter.Validate(); err != nil {
		return err
	}
	if f.BillingCycle != nil {
		if err := f.BillingCycle.Validate(); err != nil {
			return err
		}
	}
	return nil
}
