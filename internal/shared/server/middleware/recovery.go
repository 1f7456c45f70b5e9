package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/shared/server/respond"
	"box3-backend/internal/shared/telemetry"
)

// Recovery turns handler panics into a 500 with the standard error body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"user_id":    UserIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
