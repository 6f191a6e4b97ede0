// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/auth"
	"fueldesk/internal/domain/events"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/plate"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/domain/scheduler"
	"fueldesk/internal/domain/ticket"
	"fueldesk/internal/infrastructure/http/v1/handlers"
	"fueldesk/internal/infrastructure/http/v1/middleware"
	"fueldesk/internal/infrastructure/storage/postgres"
	"fueldesk/internal/observability/metrics"
	"fueldesk/pkg/logger"
)

// RouterConfig holds everything the API routes are built from.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// CORSOrigins allowed to call the API from a browser
	CORSOrigins []string

	// Location renders timestamps in vouchers and exports
	Location *time.Location

	// Pool is nil for the memory driver
	Pool    *postgres.Pool
	Driver  string
	Version string

	AuthService *auth.Service
	Quota       *quota.Service
	Tickets     *ticket.Service
	Inventory   *inventory.Service
	Plates      *plate.Service
	Audit       audit.Reader
	Hub         *events.Hub
	Jobs        *scheduler.Jobs
}

// NewRouter builds the gin engine and wraps it with CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	metrics.Init()

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler
	// so a panic still produces the JSON error body.
	router.Use(middleware.Trace())
	router.Use(middleware.ClientIP())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Driver, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, base, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerQuotaRoutes(protected, base, cfg)
		registerTicketRoutes(protected, base, cfg)
		registerInventoryRoutes(protected, base, cfg)
		registerPlateRoutes(protected, base, cfg)
		registerAuditRoutes(protected, base, cfg)
		registerEventRoutes(protected, base, cfg)
		registerAdminRoutes(protected, base, cfg)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, middleware.HeaderTraceID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})(router)
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	h := handlers.NewAuthHandler(base, cfg.AuthService)

	group := rg.Group("/auth")
	group.POST("/login", h.Login)
	group.GET("/me", middleware.Auth(cfg.JWTValidator), h.Me)
}

func registerQuotaRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewQuotaHandler(base, cfg.Quota)
	group := rg.Group("/quota")

	manage := middleware.RequireRole(appctx.RoleApprover)

	bases := group.Group("/bases")
	RegisterReadRoutes(bases, ReadRoutes{List: h.ListBases, Get: h.GetBase})
	bases.POST("", middleware.RequireRole(appctx.RoleAdmin), h.CreateBase)
	bases.PATCH("/:id", middleware.RequireRole(appctx.RoleAdmin), h.UpdateBase)
	bases.POST("/:id/activate", middleware.RequireRole(appctx.RoleAdmin), h.Activate)
	bases.POST("/:id/deactivate", middleware.RequireRole(appctx.RoleAdmin), h.Deactivate)
	bases.GET("/:id/periods/:period", h.GetBasePeriod)
	bases.POST("/:id/recharge", manage, h.Recharge)

	periods := group.Group("/periods")
	RegisterReadRoutes(periods, ReadRoutes{List: h.ListPeriods, Get: h.GetPeriod})
	periods.GET("/:id/entries", h.ListEntries)

	group.GET("/history/:period", h.ListHistory)
}

func registerTicketRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewTicketHandler(base, cfg.Tickets, cfg.Location)
	RegisterTicketRoutes(rg.Group("/tickets"), h, TicketRoles{
		Create:   []string{appctx.RoleRequester, appctx.RoleApprover},
		Approve:  []string{appctx.RoleApprover},
		Print:    []string{appctx.RoleApprover},
		Validate: []string{appctx.RoleValidator},
	})
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(base, cfg.Inventory, cfg.Location)
	group := rg.Group("/inventory")
	warehouse := middleware.RequireRole(appctx.RoleWarehouse)

	tanks := group.Group("/tanks")
	RegisterReadRoutes(tanks, ReadRoutes{List: h.ListTanks, Get: h.GetTank})
	tanks.POST("/:id/measurements", warehouse, h.Measure)

	RegisterReadRoutes(group.Group("/points"), ReadRoutes{List: h.ListPoints, Get: h.GetPoint})

	group.POST("/loads", warehouse, h.RecordLoad)
	group.POST("/loads/:id/correct", warehouse, h.CorrectLoad)
	group.POST("/evaporations", warehouse, h.Evaporation)
	group.POST("/transfers", warehouse, h.Transfer)

	group.GET("/movements", h.ListMovements)
	group.GET("/movements/export.xlsx", warehouse, h.ExportMovements)
}

func registerPlateRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewPlateHandler(base, cfg.Plates)
	group := rg.Group("/plates")
	group.GET("/next", h.Peek)
	group.POST("/next", middleware.RequireRole(appctx.RoleRequester, appctx.RoleApprover), h.Next)
	group.PUT("/counter", middleware.RequireRole(appctx.RoleAdmin), h.Set)
}

func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}
	h := handlers.NewAuditHandler(base, cfg.Audit)
	rg.GET("/audit/:entity/:id", middleware.RequireRole(appctx.RoleApprover, appctx.RoleWarehouse), h.History)
}

func registerEventRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Hub == nil {
		return
	}
	h := handlers.NewEventsHandler(base, cfg.Hub)
	rg.GET("/events", h.Stream)
}

func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Jobs == nil {
		return
	}
	h := handlers.NewAdminHandler(base, cfg.Jobs)
	group := rg.Group("/admin/scheduler", middleware.RequireRole(appctx.RoleAdmin))
	group.POST("/daily-sweep", h.DailySweep)
	group.POST("/monthly-rollover", h.MonthlyRollover)
	group.POST("/recover", h.Recover)
}
