package proration

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Calculator prices a switch between plans
type Calculator interface {
	Calculate(params Params) *Result
}

// NewCalculator returns the day based calculator
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

// ParamsFor builds the calculation input for switching sub from current to next at now
func ParamsFor(current, next *plan.Plan, sub *subscription.Subscription, now time.Time) Params {
	return Params{
		CurrentPrice:    current.Price,
		NewPrice:        next.Price,
		StartDate:       sub.StartDate,
		NextBillingDate: sub.NextBillingDate,
		ProrationDate:   now,
	}
}

// dayBasedCalculator credits the unused whole days of the current cycle
type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Calculate(params Params) *Result {
	noProration := &Result{
		ProratedAmount:  params.NewPrice.Round(types.DEFAULT_FLOATING_PRECISION),
		RemainingCredit: decimal.Zero,
	}

	if params.NextBillingDate == nil {
		return noProration
	}

	totalDays := ceilDays(params.NextBillingDate.Sub(params.StartDate))
	if totalDays <= 0 {
		noProration.TotalDays = totalDays
		return noProration
	}

	// a cycle that already ended leaves nothing to credit, and the
	// credit can never exceed the full cycle
	remainingDays := ceilDays(params.NextBillingDate.Sub(params.ProrationDate))
	remainingDays = min(max(remainingDays, 0), totalDays)

	credit := params.CurrentPrice.
		Mul(decimal.NewFromInt(remainingDays)).
		Div(decimal.NewFromInt(totalDays)).
		Round(types.DEFAULT_FLOATING_PRECISION)

	prorated := params.NewPrice.Sub(credit)
	if prorated.IsNegative() {
		prorated = decimal.Zero
	}

	return &Result{
		ProratedAmount:  prorated.Round(types.DEFAULT_FLOATING_PRECISION),
		RemainingCredit: credit,
		TotalDays:       totalDays,
		RemainingDays:   remainingDays,
		Prorated:        true,
	}
}

// ceilDays rounds a duration up to whole days, the way a day count of a
// partially elapsed day is billed
func ceilDays(d time.Duration) int64 {
	days := int64(d / day)
	if d%day > 0 {
		days++
	}
	return days
}
