package api

import (
	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/rest/middleware"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterParams carries what the router needs besides the handlers
type RouterParams struct {
	Config       *config.Configuration
	Logger       *logger.Logger
	AuthProvider auth.Provider
	Sentry       *sentry.Service
	Registry     *prometheus.Registry
	HTTPMetrics  metrics.HTTPMetrics
}

func NewRouter(handlers Handlers, params RouterParams) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.RequestIDMiddleware)
	if params.Config.Metrics.Enabled && params.HTTPMetrics != nil {
		router.Use(middleware.MetricsMiddleware(params.HTTPMetrics))
	}
	router.Use(
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(params.Config),
		middleware.ErrorHandler(params.Logger, params.Sentry),
		middleware.RateLimitMiddleware(params.Config),
	)

	router.GET("/health", handlers.Health.Health)
	if params.Config.Metrics.Enabled && params.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{})))
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers, middleware.AuthenticateMiddleware(params.AuthProvider, params.Logger))

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, authenticate gin.HandlerFunc) {
	// Public routes
	router.POST("/users/register", handlers.User.Register)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", handlers.Auth.Login)
		authRoutes.POST("/refresh", handlers.Auth.Refresh)
	}

	plans := router.Group("/plans")
	{
		plans.GET("", handlers.Plan.GetPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)

		admin := plans.Group("", authenticate, middleware.RequireRole(types.UserRoleAdmin))
		admin.POST("", handlers.Plan.CreatePlan)
		admin.PUT("/:id", handlers.Plan.UpdatePlan)
		admin.PATCH("/:id/toggle-activation", handlers.Plan.TogglePlanActivation)
		admin.DELETE("/:id", handlers.Plan.DeletePlan)
	}

	// Private routes
	private := router.Group("", authenticate)

	users := private.Group("/users")
	{
		users.GET("/me", handlers.User.GetUserInfo)
	}

	member := private.Group("", middleware.RequireRole(types.UserRoleUser))

	subscriptions := member.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.GetUserSubscription)
		subscriptions.GET("/history", handlers.Subscription.ListSubscriptionHistory)
		subscriptions.PATCH("/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/switch", handlers.Subscription.SwitchSubscription)
	}

	payments := member.Group("/payments")
	{
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
	}
}
