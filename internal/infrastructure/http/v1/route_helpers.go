package v1

import (
	"github.com/gin-gonic/gin"

	"fueldesk/internal/infrastructure/http/v1/middleware"
)

// ReadRoutes pairs the list and get handlers of a read-only resource.
type ReadRoutes struct {
	List gin.HandlerFunc
	Get  gin.HandlerFunc
}

// RegisterReadRoutes registers GET "" and GET "/:id" for a resource.
//
// Usage:
//
//	RegisterReadRoutes(inv.Group("/tanks"), ReadRoutes{List: h.ListTanks, Get: h.GetTank})
func RegisterReadRoutes(group *gin.RouterGroup, routes ReadRoutes, roles ...string) {
	handlers := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if len(roles) == 0 {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{middleware.RequireRole(roles...), h}
	}
	group.GET("", handlers(routes.List)...)
	group.GET("/:id", handlers(routes.Get)...)
}

// TicketRouteHandler is the set of lifecycle endpoints a ticket handler serves.
type TicketRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Approve(c *gin.Context)
	Print(c *gin.Context)
	Reprint(c *gin.Context)
	Voucher(c *gin.Context)
	Inspect(c *gin.Context)
	Dispatch(c *gin.Context)
	Finalize(c *gin.Context)
	Reject(c *gin.Context)
}

// RegisterTicketRoutes registers the ticket lifecycle, gating each transition
// on the role that performs it.
func RegisterTicketRoutes(group *gin.RouterGroup, handler TicketRouteHandler, roles TicketRoles) {
	group.GET("", handler.List)
	group.POST("", middleware.RequireRole(roles.Create...), handler.Create)
	group.GET("/code/:code", handler.GetByCode)
	group.GET("/inspect/:code", middleware.RequireRole(roles.Validate...), handler.Inspect)
	group.POST("/dispatch", middleware.RequireRole(roles.Validate...), handler.Dispatch)
	group.POST("/finalize", middleware.RequireRole(roles.Validate...), handler.Finalize)
	group.GET("/:id", handler.Get)
	group.GET("/:id/voucher.pdf", handler.Voucher)
	group.POST("/:id/approve", middleware.RequireRole(roles.Approve...), handler.Approve)
	group.POST("/:id/reject", middleware.RequireRole(roles.Approve...), handler.Reject)
	group.POST("/:id/print", middleware.RequireRole(roles.Print...), handler.Print)
	group.POST("/:id/reprint", middleware.RequireRole(roles.Print...), handler.Reprint)
}

// TicketRoles lists the roles allowed for each group of transitions.
type TicketRoles struct {
	Create   []string
	Approve  []string
	Print    []string
	Validate []string
}
