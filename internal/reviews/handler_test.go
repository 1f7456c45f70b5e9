package reviews_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/llm"
	"box3-backend/internal/reportversions"
	"box3-backend/internal/reviews"
	"box3-backend/internal/shared/storage/object/local"
)

type reviewBody struct {
	ReviewID        string `json:"reviewId"`
	Status          string `json:"status"`
	DecidedCount    int    `json:"decidedCount"`
	ReportVersionID string `json:"reportVersionId"`
	Proposals       []struct {
		ID           string `json:"id"`
		Proposed     string `json:"proposed"`
		UserDecision string `json:"userDecision"`
	} `json:"proposals"`
}

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, client llm.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &reviews.Service{
		Repo: reviews.NewMemoryRepo(),
		Versions: &reportversions.Service{
			Repo:  reportversions.NewMemoryRepo(),
			Store: local.New(t.TempDir()),
		},
		LLM: client,
	}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User"); userID != "" {
			c.Set("userId", userID)
			c.Set("isGuest", strings.HasPrefix(userID, "guest:"))
		}
		c.Next()
	})
	reviews.NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

func createReview(t *testing.T, router *gin.Engine, userID string) reviewBody {
	t.Helper()
	resp := doJSON(t, router, http.MethodPost, "/api/v1/reviews", userID, map[string]string{
		"dossierId":   "dossier-1",
		"stageId":     "stage",
		"specialist":  "fiscalist",
		"rawFeedback": "1. Vermeld de peildatum\n2. Verwijder bijlage B",
		"reportText":  "# Rapport\nOud.",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	return decode[reviewBody](t, resp)
}

func TestCreateDecideApplyFlow(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, prompt llm.Prompt) (string, error) {
		return "# Rapport\nNieuw.", nil
	})
	router := newTestRouter(t, client)

	created := createReview(t, router, "user-1")
	if created.Status != reviews.StatusOpen || len(created.Proposals) != 2 {
		t.Fatalf("unexpected created review: %+v", created)
	}

	resp := doJSON(t, router, http.MethodPost, "/api/v1/reviews/"+created.ReviewID+"/apply", "user-1", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("apply before decisions: expected 409, got %d", resp.Code)
	}
	if got := decode[errorBody](t, resp).Error.Code; got != "nothing_decided" {
		t.Fatalf("unexpected error code %q", got)
	}

	resp = doJSON(t, router, http.MethodPatch, "/api/v1/reviews/"+created.ReviewID+"/proposals/stage-0", "user-1", map[string]string{
		"decision": "accept",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("decide: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if decided := decode[reviewBody](t, resp); decided.DecidedCount != 1 || decided.Proposals[0].UserDecision != "accept" {
		t.Fatalf("unexpected decided review: %+v", decided)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/reviews/"+created.ReviewID+"/instructions", "user-1", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "GEACCEPTEERDE WIJZIGINGEN") {
		t.Fatalf("instructions: got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodPost, "/api/v1/reviews/"+created.ReviewID+"/apply", "user-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	applied := decode[reviewBody](t, resp)
	if applied.Status != reviews.StatusApplied || applied.ReportVersionID == "" {
		t.Fatalf("unexpected applied review: %+v", applied)
	}

	resp = doJSON(t, router, http.MethodPatch, "/api/v1/reviews/"+created.ReviewID+"/proposals/stage-1", "user-1", map[string]string{
		"decision": "reject",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("decide after apply: expected 409, got %d", resp.Code)
	}
}

func TestDecideErrors(t *testing.T) {
	router := newTestRouter(t, nil)
	created := createReview(t, router, "user-1")
	base := "/api/v1/reviews/" + created.ReviewID + "/proposals/"

	cases := []struct {
		name   string
		user   string
		path   string
		body   map[string]string
		status int
	}{
		{"unknown decision", "user-1", base + "stage-0", map[string]string{"decision": "maybe"}, http.StatusBadRequest},
		{"unknown proposal", "user-1", base + "stage-9", map[string]string{"decision": "accept"}, http.StatusNotFound},
		{"other user", "user-2", base + "stage-0", map[string]string{"decision": "accept"}, http.StatusForbidden},
		{"unknown review", "user-1", "/api/v1/reviews/nope/proposals/stage-0", map[string]string{"decision": "accept"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		resp := doJSON(t, router, http.MethodPatch, tc.path, tc.user, tc.body)
		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, resp.Code, resp.Body.String())
		}
	}
}

func TestCreateRequiresFeedback(t *testing.T) {
	router := newTestRouter(t, nil)
	resp := doJSON(t, router, http.MethodPost, "/api/v1/reviews", "user-1", map[string]string{
		"dossierId":  "dossier-1",
		"stageId":    "stage",
		"specialist": "fiscalist",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListFiltersByUserAndDossier(t *testing.T) {
	router := newTestRouter(t, nil)
	createReview(t, router, "user-1")
	createReview(t, router, "user-1")
	createReview(t, router, "user-2")

	resp := doJSON(t, router, http.MethodGet, "/api/v1/reviews?dossierId=dossier-1", "user-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	items := decode[[]map[string]any](t, resp)
	if len(items) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(items))
	}
	if items[0]["proposalCount"] != float64(2) {
		t.Fatalf("unexpected summary: %+v", items[0])
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/reviews?dossierId=other", "user-1", nil)
	if items := decode[[]map[string]any](t, resp); len(items) != 0 {
		t.Fatalf("expected no reviews for other dossier, got %d", len(items))
	}
}

func TestRequestFeedbackFromUpload(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, prompt llm.Prompt) (string, error) {
		if !strings.Contains(prompt.User, "Vermogen per 1 januari") {
			t.Errorf("prompt missing uploaded report: %q", prompt.User)
		}
		return `[{"proposed": "Noem de peildatum expliciet", "severity": "belangrijk"}]`, nil
	})
	router := newTestRouter(t, client)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"dossierId": "dossier-1", "stageId": "stage", "specialist": "controleur"} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="rapport.md"`)
	header.Set("Content-Type", "text/markdown")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("# Rapport\nVermogen per 1 januari: 120.000 euro.\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/ai", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", "guest:g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decode[reviewBody](t, resp)
	if len(created.Proposals) != 1 || created.Proposals[0].Proposed != "Noem de peildatum expliciet" {
		t.Fatalf("unexpected proposals: %+v", created.Proposals)
	}
}

func TestRequestFeedbackWithoutLLM(t *testing.T) {
	router := newTestRouter(t, llm.PlaceholderClient{})
	resp := doJSON(t, router, http.MethodPost, "/api/v1/reviews/ai", "user-1", map[string]string{
		"dossierId":  "dossier-1",
		"stageId":    "stage",
		"specialist": "fiscalist",
		"reportText": "# Rapport",
	})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
}
