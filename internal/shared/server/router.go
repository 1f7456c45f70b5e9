package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/reportversions"
	"box3-backend/internal/reviews"
	"box3-backend/internal/shared/config"
	"box3-backend/internal/shared/metrics"
	"box3-backend/internal/shared/server/middleware"
	"box3-backend/internal/shared/server/respond"
	"box3-backend/internal/shared/storage/db"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"
)

// RouterDeps carries the handlers and shared resources the router mounts.
type RouterDeps struct {
	Config               config.Config
	DB                   *sql.DB
	ReviewHandler        *reviews.Handler
	ReportVersionHandler *reportversions.Handler
	RateLimiter          *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(healthPath, metricsPath),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.RateLimitGroupAI: middleware.PerMinute(deps.Config.AIRateLimitPerMinute),
			},
			GroupFor: rateLimitGroup,
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.DB))
	registerMeRoutes(api)
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterRoutes(api)
	}
	if deps.ReportVersionHandler != nil {
		deps.ReportVersionHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitGroup puts the routes that call the language model in the AI group.
func rateLimitGroup(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/reviews/ai", "/api/v1/reviews/:id/apply":
		return middleware.RateLimitGroupAI
	default:
		return middleware.RateLimitGroupDefault
	}
}

func healthHandler(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": "memory"})
			return
		}
		if err := db.Ping(c.Request.Context(), database, 2*time.Second); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": "postgres"})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
