package testutils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/api/middleware"
	"github.com/linskybing/gigdesk/internal/config"
)

const TestJWTSecret = "test-secret"

// InitJWT points the middleware at a fixed test secret.
func InitJWT() {
	config.JwtSecret = TestJWTSecret
	config.Issuer = "gigdesk"
	middleware.Init()
}

// BearerFor returns an Authorization header value for the actor.
func BearerFor(t *testing.T, actorID uuid.UUID) string {
	t.Helper()
	token, err := middleware.GenerateToken(actorID, "tester", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}
