package service

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/cache"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/proration"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/domain/user"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	UserRepo    user.Repository
	PlanRepo    plan.Repository
	SubRepo     subscription.Repository
	PaymentRepo payment.Repository

	AuthProvider auth.Provider
	Cache        cache.Cache
	Calculator   proration.Calculator

	// Publishers
	EventPublisher publisher.EventPublisher

	Metrics metrics.SubscriptionMetrics

	// Now is the clock every lifecycle timestamp is read from
	Now func() time.Time
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	userRepo user.Repository,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	paymentRepo payment.Repository,
	authProvider auth.Provider,
	cache cache.Cache,
	calculator proration.Calculator,
	eventPublisher publisher.EventPublisher,
	metrics metrics.SubscriptionMetrics,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		UserRepo:       userRepo,
		PlanRepo:       planRepo,
		SubRepo:        subRepo,
		PaymentRepo:    paymentRepo,
		AuthProvider:   authProvider,
		Cache:          cache,
		Calculator:     calculator,
		EventPublisher: eventPublisher,
		Metrics:        metrics,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}
