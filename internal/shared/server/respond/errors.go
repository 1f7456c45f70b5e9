package respond

import (
	"github.com/gin-gonic/gin"

	"box3-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs the failure and aborts the request with a standardized body.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.FullPath(),
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if fields["path"] == "" {
		fields["path"] = c.Request.URL.Path
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if reviewID := c.Param("id"); reviewID != "" {
		fields["resource_id"] = reviewID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
