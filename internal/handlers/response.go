package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"workspace-service/internal/services"
)

// ErrorResponse sends a standardized error response
// Internal errors are logged but not exposed to clients
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	requestID := getRequestID(c)

	// Log internal error details
	if err != nil {
		log.Printf("[ERROR] [%s] %s: %v", requestID, message, err)
	}

	// Send user-friendly response (don't expose internal errors)
	response := gin.H{
		"success":    false,
		"message":    message,
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	// Only include error details in development mode
	if gin.Mode() == gin.DebugMode && err != nil {
		response["error_details"] = err.Error()
	}

	c.JSON(statusCode, response)
}

// SuccessResponse sends a standardized success response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	requestID := getRequestID(c)

	response := gin.H{
		"success":    true,
		"message":    message,
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	if data != nil {
		response["data"] = data
	}

	c.JSON(statusCode, response)
}

// HandleServiceError maps typed service errors to HTTP responses.
// Unrecognized errors become a generic 500 so internals never leak.
func HandleServiceError(c *gin.Context, err error) {
	if validationErr, ok := services.IsValidationError(err); ok {
		requestID := getRequestID(c)
		response := gin.H{
			"success":    false,
			"message":    validationErr.Message,
			"field":      validationErr.Field,
			"request_id": requestID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if len(validationErr.Suggestions) > 0 {
			response["suggestions"] = validationErr.Suggestions
		}
		c.JSON(http.StatusBadRequest, response)
		return
	}

	if authErr, ok := services.IsAuthError(err); ok {
		ErrorResponse(c, http.StatusUnauthorized, authErr.Message, nil)
		return
	}

	if permissionErr, ok := services.IsPermissionError(err); ok {
		ErrorResponse(c, http.StatusForbidden, permissionErr.Message, nil)
		return
	}

	if notFoundErr, ok := services.IsNotFoundError(err); ok {
		ErrorResponse(c, http.StatusNotFound, notFoundErr.Message, nil)
		return
	}

	if conflictErr, ok := services.IsConflictError(err); ok {
		requestID := getRequestID(c)
		response := gin.H{
			"success":    false,
			"message":    conflictErr.Message,
			"request_id": requestID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if len(conflictErr.Suggestions) > 0 {
			response["suggestions"] = conflictErr.Suggestions
		}
		c.JSON(http.StatusConflict, response)
		return
	}

	if errors.Is(err, services.ErrInvitationInvalid) {
		// Deliberately uniform: callers learn nothing about why the
		// invitation cannot be used
		ErrorResponse(c, http.StatusGone, "This invitation is no longer valid", nil)
		return
	}

	ErrorResponse(c, http.StatusInternalServerError, "An internal error occurred", err)
}

// getRequestID retrieves or generates a request ID
func getRequestID(c *gin.Context) string {
	// Check if request ID was set by middleware
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	// Fallback to X-Request-ID header
	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		return requestID
	}
	// Generate a simple ID (in production, use UUID)
	return time.Now().Format("20060102150405")
}
