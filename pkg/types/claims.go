package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by bearer tokens. UserID is the actor id used by every ticket operation.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	jwt.RegisteredClaims
}
