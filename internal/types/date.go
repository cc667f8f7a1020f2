package types

import (
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

// NextBillingDate returns the renewal date for a cycle that starts at start.
// The result is midnight of the same calendar day one month (MONTHLY) or one year
// (YEARLY) later, in start's location. Day overflow rolls into the following month
// instead of clamping, so Jan 31 + 1 month is Mar 3 (Mar 2 in leap years) and
// Feb 29 + 1 year is Mar 1.
func NextBillingDate(start time.Time, cycle BillingCycle) (time.Time, error) {
	y, m, d := start.Date()

	switch cycle {
	case BILLING_CYCLE_MONTHLY:
		return time.Date(y, m+1, d, 0, 0, 0, 0, start.Location()), nil
	case BILLING_CYCLE_YEARLY:
		return time.Date(y+1, m, d, 0, 0, 0, 0, start.Location()), nil
	default:
		return start, ierr.NewErrorf("invalid billing cycle: %s", cycle).
			WithHintf("Billing cycle %s is not supported", cycle).
			Mark(ierr.ErrValidation)
	}
}
