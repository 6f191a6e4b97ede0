package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "fueldesk/internal/core/context"
)

// ClientIP stores the caller address in the request context. Transactions copy
// it into app.client_ip and the audit trail records it.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ip := c.ClientIP(); ip != "" {
			c.Request = c.Request.WithContext(appctx.WithClientIP(c.Request.Context(), ip))
		}
		c.Next()
	}
}
