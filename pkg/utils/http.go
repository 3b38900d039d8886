package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	ErrEmptyParameter = errors.New("empty parameter")
)

func ParseIDParam(c *gin.Context, param string) (uuid.UUID, error) {
	idStr := c.Param(param)
	if idStr == "" {
		return uuid.Nil, ErrEmptyParameter
	}
	return uuid.Parse(idStr)
}

func ParseQueryIntParam(c *gin.Context, param string, fallback int) (int, error) {
	valStr := c.Query(param)
	if valStr == "" {
		return fallback, nil
	}
	return strconv.Atoi(valStr)
}
