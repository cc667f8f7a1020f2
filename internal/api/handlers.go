package api

import (
	v1 "github.com/flexprice/subscription-billing/internal/api/v1"
)

// Handlers groups every v1 handler the router mounts
type Handlers struct {
	Health       *v1.HealthHandler
	Auth         *v1.AuthHandler
	User         *v1.UserHandler
	Plan         *v1.PlanHandler
	Subscription *v1.SubscriptionHandler
	Payment      *v1.PaymentHandler
}
