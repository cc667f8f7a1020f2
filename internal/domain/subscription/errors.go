package subscription

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

// NewNoActiveSubscriptionError reports that the user has nothing to cancel or switch
func NewNoActiveSubscriptionError(userID string) error {
	return ierr.NewError("no active subscription").
		WithHint("No active subscription found").
		WithReportableDetails(map[string]any{"user_id": userID}).
		Mark(ierr.ErrNotFound)
}

// NewActiveSubscriptionExistsError reports a violation of the single active subscription rule
func NewActiveSubscriptionExistsError(userID string) error {
	return ierr.NewError("user already has an active subscription").
		WithHint("User already has an active subscription").
		WithReportableDetails(map[string]any{"user_id": userID}).
		Mark(ierr.ErrAlreadyExists)
}

// NewPlanInactiveError reports an attempt to subscribe to a deactivated plan
func NewPlanInactiveError(planID string) error {
	return ierr.NewError("plan is not active").
		WithHint("Plan is not active").
		WithReportableDetails(map[string]any{"plan_id": planID}).
		Mark(ierr.ErrInvalidOperation)
}

// NewOperationFailedError hides a store failure behind a stable, generic error.
// The cause is kept in the message for logs but none of its hints or marks survive.
func NewOperationFailedError(err error, hint string) error {
	return ierr.NewErrorf("subscription store failure: %s", err.Error()).
		WithHint(hint).
		Mark(ierr.ErrOperationFailed)
}
