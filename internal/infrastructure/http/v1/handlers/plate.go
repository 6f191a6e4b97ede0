package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldesk/internal/domain/plate"
	"fueldesk/internal/infrastructure/http/v1/dto"
)

// PlateHandler exposes the correlative plate counter.
type PlateHandler struct {
	*BaseHandler
	service *plate.Service
}

func NewPlateHandler(base *BaseHandler, service *plate.Service) *PlateHandler {
	return &PlateHandler{BaseHandler: base, service: service}
}

// Peek handles GET /plates/next; it does not consume a value.
func (h *PlateHandler) Peek(c *gin.Context) {
	corr, err := h.service.Peek(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, corr)
}

// Next handles POST /plates/next
func (h *PlateHandler) Next(c *gin.Context) {
	corr, err := h.service.Next(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, corr)
}

// Set handles PUT /plates/counter
func (h *PlateHandler) Set(c *gin.Context) {
	var req dto.SetPlateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	corr, err := h.service.Set(c.Request.Context(), req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, corr)
}
