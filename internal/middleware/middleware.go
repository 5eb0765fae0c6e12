package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestID middleware generates or extracts correlation IDs for request tracing
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if request ID exists in header
		requestID := c.GetHeader("X-Request-ID")

		// Generate new UUID if not provided
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// Set request ID in context and response header
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// StructuredLogger middleware logs requests with structured fields
func StructuredLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		requestID, _ := c.Get("request_id")

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.String(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"request_id": requestID,
		})

		if c.Writer.Status() >= 500 {
			entry.Error("request completed")
		} else {
			entry.Info("request completed")
		}
	}
}

// UserExtraction extracts the authenticated user identity forwarded by the
// API gateway. Supports:
// 1. X-User-ID header (UUID)
// 2. Query parameter (user_id, for internal tooling)
func UserExtraction() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")

		if userID == "" {
			userID = c.Query("user_id")
		}

		if userID != "" {
			c.Set(UserIDKey, userID)
		}

		c.Next()
	}
}

// Context keys for request-scoped identity data
const (
	UserIDKey    = "user_id"
	RequestIDKey = "request_id"
)

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	// First check context
	if id, exists := c.Get(UserIDKey); exists {
		return id.(string)
	}
	// Then check header (set by API gateway/auth)
	return c.GetHeader("X-User-ID")
}

// GetUserUUID extracts and parses the user ID from gin context.
// Returns uuid.Nil when the request carries no identity.
func GetUserUUID(c *gin.Context) uuid.UUID {
	raw := GetUserID(c)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetRequestID extracts the correlation ID from gin context
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}
