package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/shared/telemetry"
)

func TestRecoveryReturns500AndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("kapot")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "req-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
	if !strings.Contains(resp.Body.String(), `"code":"internal"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if !strings.Contains(buf.String(), `"error":"kapot"`) {
		t.Fatalf("expected panic log, got %s", buf.String())
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/id", nil))

	id := resp.Header().Get("X-Request-Id")
	if len(id) != 36 || resp.Body.String() != id {
		t.Fatalf("expected generated uuid in header and context, got header=%q body=%q", id, resp.Body.String())
	}
}
