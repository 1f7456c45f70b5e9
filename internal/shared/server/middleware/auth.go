package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/shared/auth"
	"box3-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	isGuestKey   = "isGuest"
)

// Auth resolves the caller from a bearer JWT or an X-Guest-Id header.
// Requests whose path is listed in public skip identity checks.
func Auth(public ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(public))
	for _, p := range public {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(userIDKey, claims.Sub)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// IsGuest reports whether the caller authenticated with a guest header.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(isGuestKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
