package postgres

import (
	"testing"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestPlanFilterClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    *types.PlanFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "nil filter",
			filter:    nil,
			wantWhere: "1 = 1",
			wantArgs:  []interface{}{},
		},
		{
			name:      "plain name",
			filter:    &types.PlanFilter{Name: lo.ToPtr("Basic")},
			wantWhere: `1 = 1 AND name ILIKE $1 ESCAPE '\'`,
			wantArgs:  []interface{}{"%Basic%"},
		},
		{
			name:      "percent matches literally",
			filter:    &types.PlanFilter{Name: lo.ToPtr("50%")},
			wantWhere: `1 = 1 AND name ILIKE $1 ESCAPE '\'`,
			wantArgs:  []interface{}{`%50\%%`},
		},
		{
			name:      "underscore and backslash match literally",
			filter:    &types.PlanFilter{Name: lo.ToPtr(`a_b\c`)},
			wantWhere: `1 = 1 AND name ILIKE $1 ESCAPE '\'`,
			wantArgs:  []interface{}{`%a\_b\\c%`},
		},
		{
			name: "all filters number their placeholders",
			filter: &types.PlanFilter{
				Name:         lo.ToPtr("_"),
				BillingCycle: lo.ToPtr(types.BILLING_CYCLE_YEARLY),
				Active:       lo.ToPtr(true),
			},
			wantWhere: `1 = 1 AND name ILIKE $1 ESCAPE '\' AND billing_cycle = $2 AND active = $3`,
			wantArgs:  []interface{}{`%\_%`, types.BILLING_CYCLE_YEARLY, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := planFilterClause(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
