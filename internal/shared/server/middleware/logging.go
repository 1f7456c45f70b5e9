package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can correlate resources.
const (
	ReviewIDKey     = "reviewId"
	DossierIDKey    = "dossierId"
	StatusChangeKey = "statusTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              path,
			"status":            c.Writer.Status(),
			"status_transition": c.GetString(StatusChangeKey),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           UserIDFromContext(c),
			"review_id":         c.GetString(ReviewIDKey),
			"dossier_id":        c.GetString(DossierIDKey),
			"is_guest":          IsGuest(c),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
