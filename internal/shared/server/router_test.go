package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"box3-backend/internal/llm"
	"box3-backend/internal/reportversions"
	"box3-backend/internal/reviews"
	"box3-backend/internal/shared/config"
	"box3-backend/internal/shared/storage/object/local"
)

func newTestDeps(t *testing.T) RouterDeps {
	t.Helper()
	versions := &reportversions.Service{
		Repo:  reportversions.NewMemoryRepo(),
		Store: local.New(t.TempDir()),
	}
	reviewSvc := &reviews.Service{
		Repo:     reviews.NewMemoryRepo(),
		Versions: versions,
		LLM:      llm.PlaceholderClient{},
	}
	return RouterDeps{
		Config: config.Config{
			CORSAllowOrigin:      []string{"http://localhost:5173"},
			AIRateLimitPerMinute: 1,
		},
		ReviewHandler:        reviews.NewHandler(reviewSvc),
		ReportVersionHandler: reportversions.NewHandler(versions),
	}
}

func serve(router http.Handler, method, path, guest, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if guest != "" {
		req.Header.Set("X-Guest-Id", guest)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	resp := serve(router, http.MethodGet, "/api/v1/health", "", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"memory"`) {
		t.Fatalf("health: got %d: %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodGet, "/metrics", "", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "apply_jobs_received_total") {
		t.Fatalf("metrics: got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHealthReportsDatabaseOutage(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	deps := newTestDeps(t)
	deps.DB = sqlDB
	router := NewRouter(deps)

	resp := serve(router, http.MethodGet, "/api/v1/health", "", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestMeRequiresIdentity(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	if resp := serve(router, http.MethodGet, "/api/v1/me", "", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	resp := serve(router, http.MethodGet, "/api/v1/me", "g-1", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"guest:g-1"`) {
		t.Fatalf("me: got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAIRoutesAreRateLimited(t *testing.T) {
	router := NewRouter(newTestDeps(t))
	body := `{"dossierId":"d-1","stageId":"s","specialist":"fiscalist","reportText":"# Rapport"}`

	resp := serve(router, http.MethodPost, "/api/v1/reviews/ai", "g-1", body)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("first call: expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = serve(router, http.MethodPost, "/api/v1/reviews/ai", "g-1", body)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second call: expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// Plain review routes are outside the AI group.
	for i := 0; i < 3; i++ {
		if resp := serve(router, http.MethodGet, "/api/v1/reviews", "g-1", ""); resp.Code != http.StatusOK {
			t.Fatalf("list %d: expected 200, got %d", i, resp.Code)
		}
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
