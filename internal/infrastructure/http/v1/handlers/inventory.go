package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/infrastructure/http/v1/dto"
	"fueldesk/internal/infrastructure/report"
)

// exportLimit caps the rows in a spreadsheet export.
const exportLimit = 10000

// InventoryHandler handles tanks, dispensing points, loads and movements.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	loc     *time.Location
}

func NewInventoryHandler(base *BaseHandler, service *inventory.Service, loc *time.Location) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service, loc: loc}
}

// ListTanks handles GET /inventory/tanks
func (h *InventoryHandler) ListTanks(c *gin.Context) {
	var q dto.TankListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListTanks(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// GetTank handles GET /inventory/tanks/:id
func (h *InventoryHandler) GetTank(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	tank, err := h.service.GetTank(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, tank)
}

// Measure handles POST /inventory/tanks/:id/measurements
func (h *InventoryHandler) Measure(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.MeasurementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.RecordMeasurement(c.Request.Context(), inventory.MeasurementInput{
		TankID:    id,
		Measured:  req.Measured,
		Overwrite: req.Overwrite,
		Notes:     req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// ListPoints handles GET /inventory/points
func (h *InventoryHandler) ListPoints(c *gin.Context) {
	var q dto.PointListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListPoints(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// GetPoint handles GET /inventory/points/:id
func (h *InventoryHandler) GetPoint(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	point, err := h.service.GetPoint(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, point)
}

// RecordLoad handles POST /inventory/loads
func (h *InventoryHandler) RecordLoad(c *gin.Context) {
	var req dto.RecordLoadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	load, err := h.service.RecordLoad(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, load)
}

// CorrectLoad handles POST /inventory/loads/:id/correct
func (h *InventoryHandler) CorrectLoad(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CorrectLoadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.CorrectLoad(c.Request.Context(), id, req.Received, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Evaporation handles POST /inventory/evaporations
func (h *InventoryHandler) Evaporation(c *gin.Context) {
	var req dto.EvaporationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.RecordEvaporation(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// Transfer handles POST /inventory/transfers
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Transfer(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}

// ListMovements handles GET /inventory/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var q dto.MovementListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListMovements(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// ExportMovements handles GET /inventory/movements/export.xlsx
func (h *InventoryHandler) ExportMovements(c *gin.Context) {
	var q dto.MovementListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	items, err := h.service.ExportMovements(c.Request.Context(), q.ToFilter(), exportLimit)
	if err != nil {
		h.Error(c, err)
		return
	}

	data, err := report.MovementsXLSX(items, h.loc)
	if err != nil {
		h.Error(c, err)
		return
	}
	name := fmt.Sprintf("movements-%s.xlsx", time.Now().In(h.loc).Format("20060102"))
	h.Attachment(c, name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
