package middleware

import (
	"strings"

	"github.com/flexprice/subscription-billing/internal/auth"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const bearerPrefix = "Bearer "

// AuthenticateMiddleware validates the bearer access token and sets the user id and role
// in the request context for downstream handlers
func AuthenticateMiddleware(provider auth.Provider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		claims, err := provider.ValidateToken(c.Request.Context(), tokenString, auth.TokenTypeAccess)
		if err != nil {
			log.Debugw("rejected access token", "error", err)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		if claims == nil || claims.UserID == "" {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		ctx := c.Request.Context()
		ctx = types.SetUserID(ctx, claims.UserID)
		ctx = types.SetUserRole(ctx, claims.Role)
		ctx = types.SetJWT(ctx, tokenString)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role is one of roles.
// It must run after AuthenticateMiddleware.
func RequireRole(roles ...types.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := types.GetUserRole(c.Request.Context())
		if !lo.Contains(roles, role) {
			c.Error(ierr.NewErrorf("role %q is not allowed", role).
				WithHint("You do not have permission to access this resource").
				WithReportableDetails(map[string]any{
					"required_roles": roles,
				}).
				Mark(ierr.ErrPermissionDenied))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, hint string) {
	c.Error(ierr.NewError("unauthorized").
		WithHint(hint).
		Mark(ierr.ErrUnauthorized))
	c.Abort()
}
