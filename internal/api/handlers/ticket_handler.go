package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/application"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/pkg/response"
	"github.com/linskybing/gigdesk/pkg/utils"
)

type TicketHandler struct {
	service     *application.TicketService
	attachments *application.AttachmentService
}

func NewTicketHandler(service *application.TicketService, attachments *application.AttachmentService) *TicketHandler {
	return &TicketHandler{service: service, attachments: attachments}
}

// actorAndTicket resolves the caller and the :id path parameter, writing the
// error response itself when either is missing.
func actorAndTicket(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	actorID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Unauthorized", Code: ticket.Code(ticket.ErrAuthentication)})
		return uuid.Nil, uuid.Nil, false
	}
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "Invalid ticket id", Code: ticket.Code(ticket.ErrValidation)})
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, id, true
}

// GetTicket godoc
// @Summary Load a ticket
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} ticket.Snapshot
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	snap, err := h.service.Get(c.Request.Context(), id, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListTickets godoc
// @Summary List tickets the caller participates in
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Maximum number of tickets" default(50)
// @Success 200 {array} ticket.Summary
// @Failure 401 {object} response.ErrorResponse
// @Router /tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	actorID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Unauthorized", Code: ticket.Code(ticket.ErrAuthentication)})
		return
	}
	limit, err := utils.ParseQueryIntParam(c, "limit", 50)
	if err != nil || limit <= 0 || limit > 200 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "limit must be between 1 and 200", Code: ticket.Code(ticket.ErrValidation)})
		return
	}
	summaries, err := h.service.List(c.Request.Context(), actorID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// ListMessages godoc
// @Summary Read the message log after a sequence number
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ticket ID"
// @Param after query int false "Return messages with seq greater than this" default(0)
// @Success 200 {array} object
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /tickets/{id}/messages [get]
func (h *TicketHandler) ListMessages(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	after, err := utils.ParseQueryIntParam(c, "after", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "Invalid after", Code: ticket.Code(ticket.ErrValidation)})
		return
	}
	msgs, err := h.service.ListMessages(c.Request.Context(), id, actorID, after)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// ProposePrice godoc
// @Summary Propose a price
// @Tags tickets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param input body ticket.ProposePriceDTO true "Amount in coins"
// @Success 200 {object} ticket.Snapshot
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /tickets/{id}/price [post]
func (h *TicketHandler) ProposePrice(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	var input ticket.ProposePriceDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.service.ProposePrice(c.Request.Context(), id, actorID, input.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AcceptPrice godoc
// @Summary Accept the pending price proposal
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} ticket.Snapshot
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /tickets/{id}/accept-price [post]
func (h *TicketHandler) AcceptPrice(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	snap, err := h.service.AcceptPrice(c.Request.Context(), id, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ConfirmPayment godoc
// @Summary Confirm payment (requester)
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} ticket.Snapshot
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /tickets/{id}/paid [post]
func (h *TicketHandler) ConfirmPayment(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	snap, err := h.service.ConfirmPayment(c.Request.Context(), id, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// MarkComplete godoc
// @Summary Mark the work complete (performer)
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} ticket.Snapshot
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /tickets/{id}/complete [post]
func (h *TicketHandler) MarkComplete(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	snap, err := h.service.MarkComplete(c.Request.Context(), id, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// CloseAndRate godoc
// @Summary Close the ticket and rate the performer (requester)
// @Tags tickets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param input body ticket.CloseAndRateDTO true "Rating 1-5"
// @Success 200 {object} ticket.Snapshot
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /tickets/{id}/close [post]
func (h *TicketHandler) CloseAndRate(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	var input ticket.CloseAndRateDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.service.CloseAndRate(c.Request.Context(), id, actorID, input.Rating)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AppendMessage godoc
// @Summary Send a message or an uploaded attachment
// @Tags tickets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param input body ticket.CreateMessageDTO true "Content and/or attachment reference"
// @Success 200 {object} ticket.Snapshot
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /tickets/{id}/messages [post]
func (h *TicketHandler) AppendMessage(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	var input ticket.CreateMessageDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	snap, err := h.service.AppendMessage(c.Request.Context(), id, actorID, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UploadAttachment godoc
// @Summary Upload a file to attach to a later message
// @Tags tickets
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Ticket ID"
// @Param file formData file true "Attachment"
// @Success 201 {object} ticket.AttachmentDTO
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /tickets/{id}/attachments [post]
func (h *TicketHandler) UploadAttachment(c *gin.Context) {
	actorID, id, ok := actorAndTicket(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "file is required", Code: ticket.Code(ticket.ErrValidation)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	out, err := h.attachments.Upload(c.Request.Context(), id, actorID, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
