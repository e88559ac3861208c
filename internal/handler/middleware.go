package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ext "sona/internal/utils/extractor"
)

const userIDKey = "userID"

// RequestLogger logs every request with zap. Successes stay at debug to
// keep the log volume down.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			log.Debug("Request processed", fields...)
		}
	}
}

// Auth resolves the creator identity from the Authorization header and
// aborts unauthenticated requests.
func Auth(extractor ext.Extractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := extractor.UserIDFromToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64(userIDKey)
}
