package plan

import (
	"strings"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable offer. Deactivating a plan blocks new subscriptions to it
// but leaves existing subscriptions untouched.
type Plan struct {
	ID           string             `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	Description  *string            `db:"description" json:"description,omitempty"`
	Price        decimal.Decimal    `db:"price" json:"price"`
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`
	Active       bool               `db:"active" json:"active"`
	Features     []string           `db:"features" json:"features"`
	types.BaseModel
}

func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}
	if p.Price.IsNegative() {
		return ierr.NewError("invalid plan price").
			WithHint("Price must be zero or greater").
			WithReportableDetails(map[string]any{"price": p.Price.String()}).
			Mark(ierr.ErrValidation)
	}
	if err := p.BillingCycle.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Billing cycle must be MONTHLY or YEARLY").
			Mark(ierr.ErrValidation)
	}
	return nil
}
