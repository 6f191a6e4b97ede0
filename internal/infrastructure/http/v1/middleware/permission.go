package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
)

// RequireRole middleware checks that the user holds one of roles.
// Admins pass every check.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if slices.Contains(user.Roles, appctx.RoleAdmin) {
			c.Next()
			return
		}
		for _, required := range roles {
			if slices.Contains(user.Roles, required) {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}
