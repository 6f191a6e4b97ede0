package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fueldesk/internal/infrastructure/storage/postgres"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool    *postgres.Pool
	driver  string
	version string
}

// NewHealthHandler creates a new health handler. pool may be nil.
func NewHealthHandler(pool *postgres.Pool, driver, version string) *HealthHandler {
	return &HealthHandler{pool: pool, driver: driver, version: version}
}

// Live handles liveness check (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness check (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"checks": map[string]string{"storage": h.driver},
		})
		return
	}

	if err := h.pool.Ping(c.Request.Context()); err != nil {
		postgres.LogPoolStats(c.Request.Context(), h.pool.Unwrap())
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "fueldesk",
		"version": h.version,
		"storage": h.driver,
	}
	if h.pool != nil {
		body["database"] = postgres.GetPoolStats(h.pool.Unwrap())
	}
	c.JSON(http.StatusOK, body)
}
