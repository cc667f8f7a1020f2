package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

// Params holds the input for pricing a mid-cycle plan switch
type Params struct {
	CurrentPrice    decimal.Decimal // price of the plan being left
	NewPrice        decimal.Decimal // price of the plan being switched to
	StartDate       time.Time       // start of the current cycle
	NextBillingDate *time.Time      // end of the current cycle, nil when unknown
	ProrationDate   time.Time       // effective time of the switch
}

// Result is the outcome of a proration calculation
type Result struct {
	// ProratedAmount is the new price less the remaining credit, never negative
	ProratedAmount decimal.Decimal `json:"prorated_amount"`
	// RemainingCredit is the unused value of the current cycle
	RemainingCredit decimal.Decimal `json:"remaining_credit"`
	TotalDays       int64           `json:"total_days"`
	RemainingDays   int64           `json:"remaining_days"`
	// Prorated is false when the cycle length was unknown and the full price applies
	Prorated bool `json:"prorated"`
}

// ChargeAmount is what the switch payment records: the prorated amount when it
// is positive, otherwise the full price of the new plan.
func (r *Result) ChargeAmount(newPrice decimal.Decimal) decimal.Decimal {
	if r.ProratedAmount.IsPositive() {
		return r.ProratedAmount
	}
	return newPrice
}
