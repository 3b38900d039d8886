package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/linskybing/gigdesk/internal/application"
	"github.com/linskybing/gigdesk/internal/realtime"
	"github.com/linskybing/gigdesk/pkg/logger"
)

// TicketSocketHandler serves the per-ticket realtime channel.
type TicketSocketHandler struct {
	service        *application.TicketService
	hub            *realtime.Hub
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

func NewTicketSocketHandler(service *application.TicketService, hub *realtime.Hub, allowedOrigins []string) *TicketSocketHandler {
	h := &TicketSocketHandler{service: service, hub: hub, allowedOrigins: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *TicketSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) || u.Hostname() == "localhost" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// Join godoc
// @Summary Join the realtime channel of a ticket
// @Description Emits "update" events with the full snapshot and "typing" events. Accepts {"type":"typing"} frames.
// @Tags tickets
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param token query string false "JWT for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /ws/tickets/{id} [get]
func (h *TicketSocketHandler) Join(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}

	// The client is in the room before the snapshot is loaded, so a commit
	// that lands during the load still reaches it. The outbox keeps only the
	// newest update. Membership is checked before the upgrade so a rejected
	// join gets a plain HTTP error.
	client := realtime.NewClient(h.hub, id, actorID)
	client.Join()

	snap, err := h.service.Get(c.Request.Context(), id, actorID)
	if err != nil {
		client.Leave()
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		client.Leave()
		logger.WithComponent("realtime").WithError(err).Warn("websocket upgrade failed")
		return
	}

	client.Push(realtime.Event{Type: realtime.EventUpdate, TicketID: id, Ticket: &snap})

	// The connection outlives the request context only as long as the peer stays.
	client.Run(context.WithoutCancel(c.Request.Context()), conn, func(ctx context.Context) {
		h.service.Typing(ctx, id, actorID)
	})
}
