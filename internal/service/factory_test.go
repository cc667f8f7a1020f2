package service

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/testutil"
)

// newTestServiceParams wires the suite's in-memory dependencies, now is the service clock
func newTestServiceParams(s *testutil.BaseServiceTestSuite, now func() time.Time) ServiceParams {
	stores := s.GetStores()

	params := NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		stores.UserRepo,
		stores.PlanRepo,
		stores.SubscriptionRepo,
		stores.PaymentRepo,
		s.GetAuthProvider(),
		s.GetCache(),
		s.GetCalculator(),
		s.GetPublisher(),
		s.GetMetrics(),
	)
	if now != nil {
		params.Now = now
	}
	return params
}
