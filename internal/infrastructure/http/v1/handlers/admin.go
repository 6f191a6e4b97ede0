package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldesk/internal/domain/scheduler"
	"fueldesk/internal/infrastructure/http/v1/dto"
)

// AdminHandler triggers the batch jobs on demand.
type AdminHandler struct {
	*BaseHandler
	jobs *scheduler.Jobs
}

func NewAdminHandler(base *BaseHandler, jobs *scheduler.Jobs) *AdminHandler {
	return &AdminHandler{BaseHandler: base, jobs: jobs}
}

// DailySweep handles POST /admin/scheduler/daily-sweep
func (h *AdminHandler) DailySweep(c *gin.Context) {
	var req dto.DailySweepRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.jobs.DailySweep(c.Request.Context(), req.Cutoff)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// MonthlyRollover handles POST /admin/scheduler/monthly-rollover
func (h *AdminHandler) MonthlyRollover(c *gin.Context) {
	result, err := h.jobs.MonthlyRollover(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Recover handles POST /admin/scheduler/recover
func (h *AdminHandler) Recover(c *gin.Context) {
	result, err := h.jobs.Recover(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
