package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/linskybing/gigdesk/internal/api/handlers"
)

// TicketRoutes registers ticket endpoints
func TicketRoutes(rg *gin.RouterGroup, h *handlers.TicketHandler) {
	tickets := rg.Group("/tickets")
	{
		tickets.GET("", h.ListTickets)
		tickets.GET("/:id", h.GetTicket)
		tickets.GET("/:id/messages", h.ListMessages)
		tickets.POST("/:id/price", h.ProposePrice)
		tickets.POST("/:id/accept-price", h.AcceptPrice)
		tickets.POST("/:id/paid", h.ConfirmPayment)
		tickets.POST("/:id/complete", h.MarkComplete)
		tickets.POST("/:id/close", h.CloseAndRate)
		tickets.POST("/:id/messages", h.AppendMessage)
		tickets.POST("/:id/attachments", h.UploadAttachment)
	}
}
