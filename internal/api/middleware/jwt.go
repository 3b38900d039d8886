package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/config"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/pkg/response"
	"github.com/linskybing/gigdesk/pkg/types"
	"github.com/pkg/errors"
)

var jwtKey []byte

// Init sets the JWT signing key.
func Init() {
	jwtKey = []byte(config.JwtSecret)
}

// GenerateToken issues a signed token for the actor.
var GenerateToken = func(userID uuid.UUID, username string, expireDuration time.Duration) (string, error) {
	claims := &types.Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expireDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ParseToken validates the credential and extracts claims. Every failure
// wraps ticket.ErrAuthentication.
func ParseToken(tokenStr string) (*types.Claims, error) {
	claims := &types.Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(config.Issuer))
	if err != nil {
		return nil, errors.Wrap(ticket.ErrAuthentication, err.Error())
	}
	if !token.Valid {
		return nil, errors.Wrap(ticket.ErrAuthentication, "invalid token")
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.Wrap(ticket.ErrAuthentication, "token carries no user id")
	}

	return claims, nil
}

// Resolve maps a raw credential to the actor id.
func Resolve(tokenStr string) (uuid.UUID, error) {
	claims, err := ParseToken(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

// JWTAuthMiddleware validates a Bearer token from the Authorization header or
// the token cookie. Websocket upgrades may also pass ?token= since browsers
// cannot set headers on them.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		authHeader := c.GetHeader("Authorization")
		switch {
		case authHeader != "":
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(c, "Authorization header format must be Bearer {token}")
				return
			}
			tokenStr = parts[1]
		case isWebSocketUpgrade(c) && c.Query("token") != "":
			tokenStr = c.Query("token")
		default:
			cookie, err := c.Cookie("token")
			if err != nil {
				unauthorized(c, "Authorization required (header or cookie)")
				return
			}
			tokenStr = cookie
		}

		claims, err := ParseToken(tokenStr)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: msg, Code: ticket.Code(ticket.ErrAuthentication)})
}

func isWebSocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
