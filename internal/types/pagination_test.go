package types

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name  string
		total int
		page  int
		limit int
		want  PageMeta
	}{
		{
			name:  "empty result",
			total: 0, page: 1, limit: 10,
			want: PageMeta{Page: 1, Limit: 10, TotalItems: 0, TotalPages: 0},
		},
		{
			name:  "first of several pages",
			total: 25, page: 1, limit: 10,
			want: PageMeta{Page: 1, Limit: 10, TotalItems: 25, TotalPages: 3, HasNextPage: true},
		},
		{
			name:  "last page",
			total: 25, page: 3, limit: 10,
			want: PageMeta{Page: 3, Limit: 10, TotalItems: 25, TotalPages: 3, HasPreviousPage: true},
		},
		{
			name:  "exact fit",
			total: 20, page: 2, limit: 10,
			want: PageMeta{Page: 2, Limit: 10, TotalItems: 20, TotalPages: 2, HasPreviousPage: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPageMeta(tt.total, tt.page, tt.limit))
		})
	}
}

func TestPageFilter(t *testing.T) {
	f := PageFilter{}
	assert.Equal(t, 1, f.GetPage())
	assert.Equal(t, 10, f.GetLimit())
	assert.Equal(t, 0, f.GetOffset())

	f = PageFilter{Page: lo.ToPtr(3), Limit: lo.ToPtr(500)}
	assert.Equal(t, 100, f.GetLimit())
	assert.Equal(t, 200, f.GetOffset())
	assert.Error(t, f.Validate())

	f = PageFilter{Page: lo.ToPtr(0)}
	assert.Equal(t, 1, f.GetPage())
	assert.Error(t, f.Validate())

	assert.NoError(t, NewDefaultPageFilter().Validate())
}

func TestPlanFilterValidate(t *testing.T) {
	f := NewPlanFilter()
	assert.NoError(t, f.Validate())

	f.BillingCycle = lo.ToPtr(BillingCycle("DAILY"))
	assert.Error(t, f.Validate())

	f.BillingCycle = lo.ToPtr(BILLING_CYCLE_YEARLY)
	assert.NoError(t, f.Validate())
}
