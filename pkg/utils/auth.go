package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/pkg/types"
)

var GetUserIDFromContext = func(c *gin.Context) (uuid.UUID, error) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		return uuid.Nil, errors.New("user claims not found in context")
	}

	claims, ok := claimsVal.(*types.Claims)
	if !ok {
		return uuid.Nil, errors.New("invalid user claims type")
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, errors.New("token carries no user id")
	}

	return claims.UserID, nil
}

var GetUserNameFromContext = func(c *gin.Context) (string, error) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		return "", errors.New("user claims not found in context")
	}

	claims, ok := claimsVal.(*types.Claims)
	if !ok {
		return "", errors.New("invalid user claims type")
	}

	return claims.Username, nil
}
