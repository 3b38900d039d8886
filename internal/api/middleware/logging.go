package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gigdesk/pkg/logger"
	"github.com/linskybing/gigdesk/pkg/utils"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware writes one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if actorID, err := utils.GetUserIDFromContext(c); err == nil {
			fields["actor_id"] = actorID
		}
		if username, err := utils.GetUserNameFromContext(c); err == nil && username != "" {
			fields["username"] = username
		}
		entry := log.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
