package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewSubscriptionHandler(service service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create subscription
// @Description Subscribe to an active plan. Only one active subscription per user is allowed.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription request"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.CreateSubscription(ctx, types.GetUserID(ctx), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get current subscription
// @Description Get the active subscription of the authenticated user
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions [get]
func (h *SubscriptionHandler) GetUserSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	userID := types.GetUserID(ctx)

	resp, err := h.service.GetUserSubscription(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}
	if resp == nil {
		c.Error(subscription.NewNoActiveSubscriptionError(userID))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Subscription history
// @Description List every subscription of the authenticated user, newest first
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/history [get]
func (h *SubscriptionHandler) ListSubscriptionHistory(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.ListSubscriptionHistory(ctx, types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel subscription
// @Description Cancel the active subscription of the authenticated user
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/cancel [patch]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.CancelSubscription(ctx, types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Switch subscription
// @Description Move the active subscription to another plan. Unused days of the current period are credited against the new plan's price.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param switch body dto.SwitchSubscriptionRequest true "Switch request"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/switch [post]
func (h *SubscriptionHandler) SwitchSubscription(c *gin.Context) {
	var req dto.SwitchSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.SwitchSubscription(ctx, types.GetUserID(ctx), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
