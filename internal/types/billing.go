package types

import (
	"fmt"

	"github.com/samber/lo"
)

// BillingCycle is the recurrence unit of a plan
type BillingCycle string

const (
	BILLING_CYCLE_MONTHLY BillingCycle = "MONTHLY"
	BILLING_CYCLE_YEARLY  BillingCycle = "YEARLY"
)

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) Validate() error {
	allowed := []BillingCycle{
		BILLING_CYCLE_MONTHLY,
		BILLING_CYCLE_YEARLY,
	}
	if !lo.Contains(allowed, b) {
		return fmt.Errorf("invalid billing cycle: %s", b)
	}
	return nil
}

const (
	// DEFAULT_FLOATING_PRECISION is the precision money values are rounded to
	DEFAULT_FLOATING_PRECISION = 2
)
