package testutil

import (
	"context"
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
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	UserRepo         user.Repository
	PlanRepo         plan.Repository
	SubscriptionRepo subscription.Repository
	PaymentRepo      payment.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx          context.Context
	stores       Stores
	publisher    *InMemoryEventPublisher
	db           postgres.IClient
	logger       *logger.Logger
	config       *config.Configuration
	now          time.Time
	cache        cache.Cache
	calculator   proration.Calculator
	authProvider auth.Provider
	registry     *prometheus.Registry
	metrics      metrics.SubscriptionMetrics
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Auth.Secret = "test-secret-for-unit-tests-only"
	cfg.Auth.BcryptCost = 4

	s.config = cfg
	s.logger = logger.NewNoopLogger()
	s.calculator = proration.NewCalculator()
	s.authProvider = auth.NewProvider(cfg)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	payments := NewInMemoryPaymentStore()
	subs := NewInMemorySubscriptionStore(payments)

	s.stores = Stores{
		UserRepo:         NewInMemoryUserStore(),
		PlanRepo:         NewInMemoryPlanStore().WithSubscriptions(subs),
		SubscriptionRepo: subs,
		PaymentRepo:      payments,
	}

	s.db = NewMockPostgresClient(s.logger)
	s.publisher = NewInMemoryEventPublisher()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)

	// a fresh registry per test keeps counters independent
	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.NewSubscriptionMetrics(s.registry, s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.UserRepo.(*InMemoryUserStore).Clear()
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.publisher.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetSubscriptionStore returns the in-memory subscription store for failure injection
func (s *BaseServiceTestSuite) GetSubscriptionStore() *InMemorySubscriptionStore {
	return s.stores.SubscriptionRepo.(*InMemorySubscriptionStore)
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetCalculator() proration.Calculator {
	return s.calculator
}

func (s *BaseServiceTestSuite) GetAuthProvider() auth.Provider {
	return s.authProvider
}

func (s *BaseServiceTestSuite) GetMetrics() metrics.SubscriptionMetrics {
	return s.metrics
}

func (s *BaseServiceTestSuite) GetRegistry() *prometheus.Registry {
	return s.registry
}

// GetNow returns the fixed test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// CreateTestPlan stores an active plan with the given price and cycle
func (s *BaseServiceTestSuite) CreateTestPlan(name, price string, cycle types.BillingCycle) *plan.Plan {
	p := &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         name,
		Price:        decimal.RequireFromString(price),
		BillingCycle: cycle,
		Active:       true,
		Features:     []string{},
		BaseModel: types.BaseModel{
			CreatedAt: s.now,
			UpdatedAt: s.now,
		},
	}
	s.Require().NoError(s.stores.PlanRepo.Create(s.ctx, p))
	return p
}

// CreateTestUser stores a USER role account
func (s *BaseServiceTestSuite) CreateTestUser(email string) *user.User {
	u := user.NewUser(email, "Test User", "", types.UserRoleUser)
	s.Require().NoError(s.stores.UserRepo.Create(s.ctx, u))
	return u
}
