package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/pkg/logger"
	"github.com/linskybing/gigdesk/pkg/response"
	"github.com/pkg/errors"
)

// statusFor maps the ticket error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ticket.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ticket.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ticket.ErrInvalidTransition), errors.Is(err, ticket.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ticket.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ticket.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ticket.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithComponent("http").WithError(err).WithField("path", c.FullPath()).Errorf("%+v", err)
		msg = "internal server error"
	}
	c.JSON(status, response.ErrorResponse{Error: msg, Code: ticket.Code(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error(), Code: ticket.Code(ticket.ErrValidation)})
}
