package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	v1 "github.com/flexprice/subscription-billing/internal/api/v1"
	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/testutil"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router      *gin.Engine
	httpMetrics metrics.HTTPMetrics
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.BaseServiceTestSuite.SetupSuite()
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	// collectors register once per registry, routers built later in a test share them
	s.httpMetrics = metrics.NewHTTPMetrics(s.GetRegistry())
	s.router = s.newRouter(s.GetConfig())
}

func (s *RouterSuite) newRouter(cfg *config.Configuration) *gin.Engine {
	stores := s.GetStores()
	params := service.NewServiceParams(
		s.GetLogger(),
		cfg,
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

	handlers := Handlers{
		Health:       v1.NewHealthHandler(s.GetLogger()),
		Auth:         v1.NewAuthHandler(service.NewAuthService(params), s.GetLogger()),
		User:         v1.NewUserHandler(service.NewUserService(params)),
		Plan:         v1.NewPlanHandler(service.NewPlanService(params), s.GetLogger()),
		Subscription: v1.NewSubscriptionHandler(service.NewSubscriptionService(params), s.GetLogger()),
		Payment:      v1.NewPaymentHandler(service.NewPaymentService(params)),
	}

	return NewRouter(handlers, RouterParams{
		Config:       cfg,
		Logger:       s.GetLogger(),
		AuthProvider: s.GetAuthProvider(),
		Registry:     s.GetRegistry(),
		HTTPMetrics:  s.httpMetrics,
	})
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *RouterSuite) requireError(w *httptest.ResponseRecorder, status int, code string) ierr.ErrorResponse {
	s.Require().Equal(status, w.Code, w.Body.String())
	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.False(resp.Success)
	s.Equal(code, resp.Error.Code)
	s.NotEmpty(resp.Error.Display)
	return resp
}

// signUp registers an account and returns its access token
func (s *RouterSuite) signUp(email string, role types.UserRole) string {
	w := s.do(http.MethodPost, "/v1/users/register", "", dto.RegisterUserRequest{
		Email:    email,
		Password: "secret-password",
		Name:     "Test User",
		Role:     role,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{
		Email:    email,
		Password: "secret-password",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var auth dto.AuthResponse
	s.decode(w, &auth)
	s.Require().NotEmpty(auth.AccessToken)
	return auth.AccessToken
}

func (s *RouterSuite) createPlan(adminToken, name, price string) *dto.PlanResponse {
	w := s.do(http.MethodPost, "/v1/plans", adminToken, map[string]any{
		"name":          name,
		"price":         price,
		"billing_cycle": types.BILLING_CYCLE_MONTHLY,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var p dto.PlanResponse
	s.decode(w, &p)
	return &p
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *RouterSuite) TestRequestIDHeader() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal("req-123", w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestSubscriptionLifecycle() {
	admin := s.signUp("admin@example.com", types.UserRoleAdmin)
	member := s.signUp("member@example.com", "")

	basic := s.createPlan(admin, "Basic", "30")
	pro := s.createPlan(admin, "Pro", "50")

	w := s.do(http.MethodGet, "/v1/subscriptions", member, nil)
	resp := s.requireError(w, http.StatusNotFound, ierr.ErrCodeNotFound)
	s.Equal("No active subscription found", resp.Error.Display)

	w = s.do(http.MethodPost, "/v1/subscriptions", member, dto.CreateSubscriptionRequest{PlanID: basic.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.SubscriptionResponse
	s.decode(w, &created)
	s.True(created.Active)
	s.True(created.RemainingCredit.IsZero())

	w = s.do(http.MethodPost, "/v1/subscriptions", member, dto.CreateSubscriptionRequest{PlanID: pro.ID})
	s.requireError(w, http.StatusConflict, ierr.ErrCodeAlreadyExists)

	w = s.do(http.MethodGet, "/v1/subscriptions", member, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var current dto.SubscriptionResponse
	s.decode(w, &current)
	s.Equal(created.ID, current.ID)

	w = s.do(http.MethodPost, "/v1/subscriptions/switch", member, dto.SwitchSubscriptionRequest{NewPlanID: pro.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var switched dto.SubscriptionResponse
	s.decode(w, &switched)
	s.NotEqual(created.ID, switched.ID)
	s.Equal(pro.ID, switched.Plan.ID)

	w = s.do(http.MethodGet, "/v1/payments", member, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var payments dto.ListPaymentsResponse
	s.decode(w, &payments)
	s.Len(payments.Items, 2)

	w = s.do(http.MethodGet, "/v1/payments/"+payments.Items[0].ID, member, nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPatch, "/v1/subscriptions/cancel", member, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPatch, "/v1/subscriptions/cancel", member, nil)
	s.requireError(w, http.StatusNotFound, ierr.ErrCodeNotFound)

	w = s.do(http.MethodGet, "/v1/subscriptions/history", member, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var history dto.ListSubscriptionsResponse
	s.decode(w, &history)
	s.Len(history.Items, 2)
	for _, item := range history.Items {
		s.False(item.Active)
	}
}

func (s *RouterSuite) TestSubscribeToInactivePlan() {
	admin := s.signUp("admin@example.com", types.UserRoleAdmin)
	member := s.signUp("member@example.com", types.UserRoleUser)
	p := s.createPlan(admin, "Legacy", "10")

	w := s.do(http.MethodPatch, "/v1/plans/"+p.ID+"/toggle-activation", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/subscriptions", member, dto.CreateSubscriptionRequest{PlanID: p.ID})
	s.requireError(w, http.StatusBadRequest, ierr.ErrCodeInvalidOperation)

	w = s.do(http.MethodPost, "/v1/subscriptions", member, dto.CreateSubscriptionRequest{PlanID: "plan_missing"})
	s.requireError(w, http.StatusNotFound, ierr.ErrCodeNotFound)
}

func (s *RouterSuite) TestAuthentication() {
	w := s.do(http.MethodGet, "/v1/subscriptions", "", nil)
	s.requireError(w, http.StatusUnauthorized, ierr.ErrCodeUnauthorized)

	w = s.do(http.MethodGet, "/v1/users/me", "not-a-token", nil)
	s.requireError(w, http.StatusUnauthorized, ierr.ErrCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set(types.HeaderAuthorization, "Basic abc")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.requireError(rec, http.StatusUnauthorized, ierr.ErrCodeUnauthorized)

	member := s.signUp("member@example.com", types.UserRoleUser)
	w = s.do(http.MethodGet, "/v1/users/me", member, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var me dto.UserResponse
	s.decode(w, &me)
	s.Equal("member@example.com", me.Email)
	s.Equal(types.UserRoleUser, me.Role)
}

func (s *RouterSuite) TestRefreshTokenIsNotAnAccessToken() {
	s.signUp("member@example.com", types.UserRoleUser)

	w := s.do(http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{
		Email:    "member@example.com",
		Password: "secret-password",
	})
	s.Require().Equal(http.StatusOK, w.Code)
	var auth dto.AuthResponse
	s.decode(w, &auth)

	w = s.do(http.MethodGet, "/v1/users/me", auth.RefreshToken, nil)
	s.requireError(w, http.StatusUnauthorized, ierr.ErrCodeUnauthorized)

	w = s.do(http.MethodPost, "/v1/auth/refresh", "", dto.RefreshTokenRequest{RefreshToken: auth.RefreshToken})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *RouterSuite) TestRoleGuards() {
	admin := s.signUp("admin@example.com", types.UserRoleAdmin)
	member := s.signUp("member@example.com", types.UserRoleUser)

	w := s.do(http.MethodPost, "/v1/plans", member, map[string]any{
		"name":          "Sneaky",
		"price":         "1",
		"billing_cycle": types.BILLING_CYCLE_MONTHLY,
	})
	s.requireError(w, http.StatusForbidden, ierr.ErrCodePermissionDenied)

	w = s.do(http.MethodGet, "/v1/subscriptions", admin, nil)
	s.requireError(w, http.StatusForbidden, ierr.ErrCodePermissionDenied)

	w = s.do(http.MethodGet, "/v1/payments", admin, nil)
	s.requireError(w, http.StatusForbidden, ierr.ErrCodePermissionDenied)
}

func (s *RouterSuite) TestPlans() {
	admin := s.signUp("admin@example.com", types.UserRoleAdmin)
	basic := s.createPlan(admin, "Basic", "30")
	s.createPlan(admin, "Pro", "50")

	w := s.do(http.MethodGet, "/v1/plans?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var list dto.ListPlansResponse
	s.decode(w, &list)
	s.Len(list.Items, 1)
	s.Equal(2, list.Meta.TotalItems)
	s.Equal(1, list.Meta.Limit)

	w = s.do(http.MethodGet, "/v1/plans?limit=abc", "", nil)
	s.requireError(w, http.StatusBadRequest, ierr.ErrCodeValidation)

	w = s.do(http.MethodGet, "/v1/plans/"+basic.ID, "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPut, "/v1/plans/"+basic.ID, admin, map[string]any{"name": "Basic Plus"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.PlanResponse
	s.decode(w, &updated)
	s.Equal("Basic Plus", updated.Name)

	w = s.do(http.MethodDelete, "/v1/plans/"+basic.ID, admin, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/v1/plans/"+basic.ID, "", nil)
	s.requireError(w, http.StatusNotFound, ierr.ErrCodeNotFound)
}

func (s *RouterSuite) TestMalformedBody() {
	member := s.signUp("member@example.com", types.UserRoleUser)

	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(types.HeaderAuthorization, "Bearer "+member)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.requireError(w, http.StatusBadRequest, ierr.ErrCodeValidation)

	w = s.do(http.MethodPost, "/v1/subscriptions/switch", member, map[string]any{})
	s.requireError(w, http.StatusBadRequest, ierr.ErrCodeValidation)
}

func (s *RouterSuite) TestRateLimit() {
	cfg := *s.GetConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}
	s.router = s.newRouter(&cfg)

	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/health", "", nil)
	s.requireError(w, http.StatusTooManyRequests, ierr.ErrCodeTooManyRequests)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	w := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	cfg := *s.GetConfig()
	cfg.Metrics.Enabled = true
	s.router = s.newRouter(&cfg)

	s.do(http.MethodGet, "/health", "", nil)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `http_requests_total{method="GET",route="/health",status="2xx"} 1`)
}
