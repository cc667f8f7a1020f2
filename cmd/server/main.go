package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "github.com/flexprice/subscription-billing/docs/swagger"
	"github.com/flexprice/subscription-billing/internal/api"
	v1 "github.com/flexprice/subscription-billing/internal/api/v1"
	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/cache"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/domain/proration"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/publisher"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	"github.com/flexprice/subscription-billing/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/subscription-billing/internal/pubsub/router"
	"github.com/flexprice/subscription-billing/internal/repository"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// @title Subscription Billing API
// @version 1.0
// @description Plans, subscriptions with proration, and payments
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the access token in the format **Bearer &lt;token&gt;**

const shutdownTimeout = 10 * time.Second

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,
			metrics.NewRegistry,
			metrics.NewSubscriptionMetrics,
			metrics.NewHTTPMetrics,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			postgres.NewSentryClient,

			// PubSub
			memory.NewPubSub,
			pubsubRouter.NewRouter,
			publisher.NewEventPublisher,
			publisher.NewAuditConsumer,

			// Repositories
			repository.NewUserRepository,
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,
			repository.NewPaymentRepository,

			// Auth and proration
			auth.NewProvider,
			proration.NewCalculator,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewAuthService,
			service.NewUserService,
			service.NewPlanService,
			service.NewSubscriptionService,
			service.NewPaymentService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			closeDB,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	authService service.AuthService,
	userService service.UserService,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
	paymentService service.PaymentService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Auth:         v1.NewAuthHandler(authService, logger),
		User:         v1.NewUserHandler(userService),
		Plan:         v1.NewPlanHandler(planService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Payment:      v1.NewPaymentHandler(paymentService),
	}
}

func provideRouter(
	handlers api.Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	authProvider auth.Provider,
	sentryService *sentry.Service,
	registry *prometheus.Registry,
	httpMetrics metrics.HTTPMetrics,
) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, api.RouterParams{
		Config:       cfg,
		Logger:       logger,
		AuthProvider: authProvider,
		Sentry:       sentryService,
		Registry:     registry,
		HTTPMetrics:  httpMetrics,
	})
}

func closeDB(lc fx.Lifecycle, db *postgres.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	pubSub pubsub.PubSub,
	auditConsumer *publisher.AuditConsumer,
	log *logger.Logger,
) {
	// hooks stop in reverse order, the pubsub closes after the router
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pubSub.Close()
		},
	})

	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		if cfg.Events.Consumer {
			auditConsumer.RegisterHandler(router)
			startMessageRouter(lc, router, log)
		}
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	logger *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			return router.Close()
		},
	})
}
