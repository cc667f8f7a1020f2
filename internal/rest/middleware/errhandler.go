package middleware

import (
	"net/http"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Only hints and reportable details reach the client, server errors go to the log and sentry.
func ErrorHandler(log *logger.Logger, sentrySvc *sentry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= http.StatusInternalServerError {
			log.Errorw("request failed",
				"error", err,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"request_id", types.GetRequestID(c.Request.Context()),
			)
			sentrySvc.CaptureException(c.Request.Context(), err)
		}

		details := ierr.GetDetails(err)
		if len(details) == 0 {
			details = nil
		}

		c.AbortWithStatusJSON(status, ierr.ErrorResponse{
			Success: false,
			Error: ierr.ErrorDetail{
				Code:    ierr.CodeFromErr(err),
				Display: ierr.GetDisplayMessage(err),
				Details: details,
			},
		})
	}
}
