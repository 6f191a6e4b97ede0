package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"fueldesk/internal/domain/events"
	"fueldesk/pkg/logger"
)

const heartbeatInterval = 25 * time.Second

// EventsHandler streams committed ledger events as server-sent events.
type EventsHandler struct {
	*BaseHandler
	hub *events.Hub
}

func NewEventsHandler(base *BaseHandler, hub *events.Hub) *EventsHandler {
	return &EventsHandler{BaseHandler: base, hub: hub}
}

// Stream handles GET /events
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	id, ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	logger.Debug(ctx, "event subscriber connected", "subscriber", id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})

	logger.Debug(ctx, "event subscriber disconnected", "subscriber", id)
}
