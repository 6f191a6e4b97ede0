package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fueldesk/internal/domain/ticket"
	"fueldesk/internal/infrastructure/http/v1/dto"
	"fueldesk/internal/infrastructure/report"
)

// TicketHandler drives the ticket lifecycle.
type TicketHandler struct {
	*BaseHandler
	service *ticket.Service
	loc     *time.Location
}

// NewTicketHandler creates a ticket handler. loc is used to render vouchers.
func NewTicketHandler(base *BaseHandler, service *ticket.Service, loc *time.Location) *TicketHandler {
	return &TicketHandler{BaseHandler: base, service: service, loc: loc}
}

// List handles GET /tickets
func (h *TicketHandler) List(c *gin.Context) {
	var q dto.TicketListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// Create handles POST /tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req dto.CreateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// Get handles GET /tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// GetByCode handles GET /tickets/code/:code
func (h *TicketHandler) GetByCode(c *gin.Context) {
	t, err := h.service.GetByCode(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Approve handles POST /tickets/:id/approve
func (h *TicketHandler) Approve(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Print handles POST /tickets/:id/print
func (h *TicketHandler) Print(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PrintTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Print(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Reprint handles POST /tickets/:id/reprint
func (h *TicketHandler) Reprint(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Reprint(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Voucher handles GET /tickets/:id/voucher.pdf
func (h *TicketHandler) Voucher(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	data, err := report.VoucherPDF(t, h.loc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, fmt.Sprintf("ticket-%s.pdf", t.Code), "application/pdf", data)
}

// Inspect handles GET /tickets/inspect/:code
func (h *TicketHandler) Inspect(c *gin.Context) {
	result, err := h.service.Inspect(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Dispatch handles POST /tickets/dispatch
func (h *TicketHandler) Dispatch(c *gin.Context) {
	var req dto.DispatchTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Dispatch(c.Request.Context(), ticket.DispatchInput{
		Code:     strings.TrimSpace(req.Code),
		Released: req.Released,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Finalize handles POST /tickets/finalize
func (h *TicketHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Finalize(c.Request.Context(), ticket.FinalizeInput{
		Code:      strings.TrimSpace(req.Code),
		Delivered: req.Delivered,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Reject handles POST /tickets/:id/reject
func (h *TicketHandler) Reject(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RejectTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}
