package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gigdesk/internal/application"
	"github.com/linskybing/gigdesk/internal/domain/gig"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/pkg/response"
	"github.com/linskybing/gigdesk/pkg/utils"
)

type GigHandler struct {
	tickets *application.TicketService
}

func NewGigHandler(tickets *application.TicketService) *GigHandler {
	return &GigHandler{tickets: tickets}
}

// Apply godoc
// @Summary Apply to a gig as the calling performer and open its ticket
// @Tags gigs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param gig_ref path string true "Gig reference"
// @Param input body gig.ApplyDTO true "Gig owner"
// @Success 201 {object} ticket.Snapshot
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /gigs/{gig_ref}/applications [post]
func (h *GigHandler) Apply(c *gin.Context) {
	performerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Unauthorized", Code: ticket.Code(ticket.ErrAuthentication)})
		return
	}
	var input gig.ApplyDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.tickets.CreateForApplication(c.Request.Context(), c.Param("gig_ref"), input.RequesterID, performerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}
