package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/infrastructure/http/v1/dto"
)

// QuotaHandler exposes quota bases, periods, entries and history.
type QuotaHandler struct {
	*BaseHandler
	service *quota.Service
}

func NewQuotaHandler(base *BaseHandler, service *quota.Service) *QuotaHandler {
	return &QuotaHandler{BaseHandler: base, service: service}
}

// periodParam reads a "YYYY-MM" path or query value; empty means the current period.
func (h *QuotaHandler) periodParam(c *gin.Context, value string) (types.Period, bool) {
	if value == "" || value == "current" {
		return h.service.CurrentPeriod(), true
	}
	p, err := types.ParsePeriod(value)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("period", value))
		return "", false
	}
	return p, true
}

// ListBases handles GET /quota/bases
func (h *QuotaHandler) ListBases(c *gin.Context) {
	var q dto.QuotaBaseListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListBases(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// CreateBase handles POST /quota/bases
func (h *QuotaHandler) CreateBase(c *gin.Context) {
	var req dto.CreateQuotaBaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	base, err := h.service.CreateBase(c.Request.Context(), req.Scope(), req.MonthlyAmount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, base)
}

// GetBase handles GET /quota/bases/:id
func (h *QuotaHandler) GetBase(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	base, err := h.service.GetBase(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, base)
}

// UpdateBase handles PATCH /quota/bases/:id
func (h *QuotaHandler) UpdateBase(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateQuotaBaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	base, err := h.service.UpdateBase(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, base)
}

// Activate handles POST /quota/bases/:id/activate
func (h *QuotaHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate handles POST /quota/bases/:id/deactivate
func (h *QuotaHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *QuotaHandler) setActive(c *gin.Context, active bool) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	base, err := h.service.SetBaseActive(c.Request.Context(), id, active)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, base)
}

// GetBasePeriod handles GET /quota/bases/:id/periods/:period, opening the period if needed.
func (h *QuotaHandler) GetBasePeriod(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	period, ok := h.periodParam(c, c.Param("period"))
	if !ok {
		return
	}
	p, err := h.service.GetOrCreatePeriod(c.Request.Context(), id, period)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Recharge handles POST /quota/bases/:id/recharge
func (h *QuotaHandler) Recharge(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RechargeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	period, ok := h.periodParam(c, req.Period)
	if !ok {
		return
	}

	p, err := h.service.Recharge(c.Request.Context(), quota.RechargeInput{
		BaseID:       id,
		Period:       period,
		Amount:       req.Amount,
		AuthorizedBy: appctx.GetUserID(c.Request.Context()),
		Reason:       req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListPeriods handles GET /quota/periods
func (h *QuotaHandler) ListPeriods(c *gin.Context) {
	var q dto.QuotaPeriodListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Period != "" {
		if _, ok := h.periodParam(c, q.Period); !ok {
			return
		}
	}
	result, err := h.service.ListPeriods(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// GetPeriod handles GET /quota/periods/:id
func (h *QuotaHandler) GetPeriod(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPeriod(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListEntries handles GET /quota/periods/:id/entries
func (h *QuotaHandler) ListEntries(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListEntries(c.Request.Context(), id, q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// ListHistory handles GET /quota/history/:period
func (h *QuotaHandler) ListHistory(c *gin.Context) {
	period, ok := h.periodParam(c, c.Param("period"))
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListHistory(c.Request.Context(), period, q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}
