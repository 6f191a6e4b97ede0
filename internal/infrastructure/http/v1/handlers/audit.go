package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/domain/audit"
)

var auditEntities = map[string]string{
	"quota-bases":   audit.EntityQuotaBase,
	"quota-periods": audit.EntityQuotaPeriod,
	"tickets":       audit.EntityTicket,
	"tanks":         audit.EntityTank,
	"points":        audit.EntityPoint,
}

// AuditHandler serves an entity's audit trail.
type AuditHandler struct {
	*BaseHandler
	reader audit.Reader
}

func NewAuditHandler(base *BaseHandler, reader audit.Reader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// History handles GET /audit/:entity/:id
func (h *AuditHandler) History(c *gin.Context) {
	entity, ok := auditEntities[c.Param("entity")]
	if !ok {
		h.Error(c, apperror.NewValidation("unknown audit entity").WithDetail("entity", c.Param("entity")))
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.reader.History(c.Request.Context(), entity, id, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, gin.H{"items": entries})
}
