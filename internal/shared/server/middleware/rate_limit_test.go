package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRateLimitedRouter(limiter *RateLimiter, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "guest:test-guest")
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/api/v1/reviews/ai" {
				return RateLimitGroupAI
			}
			return RateLimitGroupDefault
		},
		Limiter: limiter,
		Rules:   rules,
	}))
	r.POST("/api/v1/reviews/ai", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/v1/reviews", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimitAIGroupIsolatedFromReads(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newRateLimitedRouter(limiter, map[string]RateLimitRule{
		RateLimitGroupAI: PerMinute(2),
	})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/reviews/ai", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("ai request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/reviews/ai", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("ai request 3 expected 429, got %d", resp.Code)
	}

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("read request %d expected 200, got %d", i+1, resp.Code)
		}
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newRateLimitedRouter(limiter, map[string]RateLimitRule{
		RateLimitGroupAI: {Rate: 1, Burst: 1},
	})

	resp1 := httptest.NewRecorder()
	r.ServeHTTP(resp1, httptest.NewRequest(http.MethodPost, "/api/v1/reviews/ai", nil))
	if resp1.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp1.Code)
	}

	resp2 := httptest.NewRecorder()
	r.ServeHTTP(resp2, httptest.NewRequest(http.MethodPost, "/api/v1/reviews/ai", nil))
	if resp2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp2.Code)
	}
	if resp2.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp2.Header().Get("Retry-After"))
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected code rate_limited, got %q", payload.Error.Code)
	}
	if _, ok := payload.Error.Details["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in details")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := PerMinute(1)

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected first token")
	}
	ok, wait := limiter.Allow("k", rule)
	if ok || wait < 59*time.Second || wait > 61*time.Second {
		t.Fatalf("expected about 1m wait, got ok=%v wait=%v", ok, wait)
	}
	now = now.Add(time.Minute)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected refilled token")
	}
}

func TestPerMinuteDisabledRuleAllows(t *testing.T) {
	limiter := NewRateLimiter(nil)
	for i := 0; i < 10; i++ {
		if ok, _ := limiter.Allow("k", PerMinute(0)); !ok {
			t.Fatalf("disabled rule must allow")
		}
	}
}
