package app

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrBrightsidedev/Docwise/app/config"
	"github.com/MrBrightsidedev/Docwise/app/models"
	"github.com/MrBrightsidedev/Docwise/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

// completionStub is a fake completion service that records how often it was
// called and what it received.
type completionStub struct {
	status   int
	body     string
	calls    int
	lastBody []byte
	server   *httptest.Server
}

func newCompletionStub(t *testing.T, status int, body string) *completionStub {
	t.Helper()
	stub := &completionStub{status: status, body: body}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls++
		stub.lastBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(stub.status)
		w.Write([]byte(stub.body))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func newTestApp(t *testing.T, genURL string) (*App, sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Generation: config.GenerationConfig{
			APIURL:    genURL,
			APIKey:    "test-key",
			Model:     "test-model",
			MaxTokens: 1024,
		},
		Stripe: config.StripeConfig{
			WebhookSecret:   "whsec_test",
			PriceIDPro:      "price_pro",
			PriceIDBusiness: "price_business",
			FrontendURL:     "https://docwise.test",
		},
	}
	a := New(cfg, NewStore(db))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx := auth.WithClaims(c.Request.Context(), &auth.Claims{Subject: "user-1"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	router.POST("/api/ai/generate", a.Generate)
	router.POST("/api/ai/summarize", a.Summarize)
	router.POST("/api/stripe/webhook", a.StripeWebhook)
	router.POST("/api/export", a.ExportDocument)
	router.GET("/api/google/callback", a.GoogleCallback)
	router.GET("/me", a.Me)
	router.GET("/api/documents", a.ListDocuments)
	router.POST("/api/documents", a.CreateDocument)
	router.DELETE("/api/documents/:id", a.DeleteDocument)
	return a, mock, router
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func expectUsageRow(mock sqlmock.Sqlmock, plan string, used int) {
	mock.ExpectQuery("SELECT plan, ai_generations_used").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(usageColumns()).
			AddRow(plan, used, monthStartUTC(time.Now()), nil))
}

func TestGenerateLimitReached(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"doc"}]}`)
	_, mock, router := newTestApp(t, stub.server.URL)

	// Free plan with the whole allowance consumed.
	expectUsageRow(mock, "free", 5)

	resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: "an nda"})
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.Code)
	}

	var out models.GenerateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.LimitReached {
		t.Fatalf("limit_reached missing: %+v", out)
	}
	if stub.calls != 0 {
		t.Fatalf("completion service called %d times, want 0", stub.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store activity: %v", err)
	}
}

func TestGenerateSuccessCreatesDocumentAndIncrementsOnce(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"# Non-Disclosure Agreement\n..."}]}`)
	_, mock, router := newTestApp(t, stub.server.URL)
	now := time.Now().UTC()

	expectUsageRow(mock, "free", 1)
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(sqlmock.AnyArg(), "user-1", "Non-Disclosure Agreement", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery("UPDATE usage_counters").
		WithArgs("user-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"plan", "ai_generations_used", "period_start"}).
			AddRow("free", 2, monthStartUTC(now)))

	prompt := "Create an NDA for a 2-year confidentiality period between two companies in Germany"
	resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: prompt})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var out models.GenerateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Content == "" || out.DocumentID == "" {
		t.Fatalf("response = %+v", out)
	}
	if out.Usage == nil || out.Usage.Used != 2 {
		t.Fatalf("usage snapshot = %+v", out.Usage)
	}

	// Detected parameters ride along in the upstream prompt.
	upstream := string(stub.lastBody)
	if !strings.Contains(upstream, "Document type: nda") || !strings.Contains(upstream, "Jurisdiction: DE") {
		t.Fatalf("upstream prompt missing detected params: %s", upstream)
	}
	if stub.calls != 1 {
		t.Fatalf("completion service called %d times, want 1", stub.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGenerateFailureLeavesCounterUntouched(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"upstream error":   {http.StatusInternalServerError, `{"error":"boom"}`},
		"empty candidates": {http.StatusOK, `{"candidates":[]}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			stub := newCompletionStub(t, tc.status, tc.body)
			_, mock, router := newTestApp(t, stub.server.URL)

			// Only the usage snapshot read is expected; any insert or
			// increment would trip ExpectationsWereMet.
			expectUsageRow(mock, "free", 1)

			resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: "an nda"})
			if resp.Code != http.StatusBadGateway {
				t.Fatalf("status = %d, want 502", resp.Code)
			}
			if stub.calls != 1 {
				t.Fatalf("completion service called %d times, want 1", stub.calls)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("counter or document mutated on failure: %v", err)
			}
		})
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"doc"}]}`)
	_, mock, router := newTestApp(t, stub.server.URL)

	resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	if stub.calls != 0 {
		t.Fatalf("completion service called on invalid input")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store touched on invalid input: %v", err)
	}
}

func TestGenerateNotConfiguredFailsClosed(t *testing.T) {
	_, mock, router := newTestApp(t, "") // no completion endpoint configured

	resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: "an nda"})
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store touched: %v", err)
	}
}

func TestSummarizeSuccess(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"Short summary."}]}`)
	_, mock, router := newTestApp(t, stub.server.URL)

	expectUsageRow(mock, "pro", 10)
	mock.ExpectQuery("UPDATE usage_counters").
		WithArgs("user-1", 100).
		WillReturnRows(sqlmock.NewRows([]string{"plan", "ai_generations_used", "period_start"}).
			AddRow("pro", 11, monthStartUTC(time.Now())))

	resp := postJSON(router, "/api/ai/summarize", models.SummarizeRequest{
		DocumentID:  "doc-1",
		Content:     "WHEREAS the parties agree...",
		SummaryType: "key_points",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var out models.GenerateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Summary == "" || out.DocumentID != "" {
		t.Fatalf("response = %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSummarizeRejectsUnknownType(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"ok"}]}`)
	_, _, router := newTestApp(t, stub.server.URL)

	resp := postJSON(router, "/api/ai/summarize", models.SummarizeRequest{
		DocumentID:  "doc-1",
		Content:     "text",
		SummaryType: "haiku",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestGenerateIncrementLostRaceStillSucceeds(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"doc"}]}`)
	_, mock, router := newTestApp(t, stub.server.URL)
	now := time.Now().UTC()

	expectUsageRow(mock, "free", 4)
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	// A concurrent request consumed the last slot between the pre-flight
	// check and the increment.
	mock.ExpectQuery("UPDATE usage_counters").
		WithArgs("user-1", 5).
		WillReturnError(sql.ErrNoRows)

	resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: "an nda please"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var out models.GenerateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Usage == nil || out.Usage.Used != 4 {
		t.Fatalf("response = %+v", out)
	}
}

func TestGenerateIncrementFailureIsSurfaced(t *testing.T) {
	stub := newCompletionStub(t, http.StatusOK, `{"candidates":[{"text":"doc"}]}`)
	_, mock, router := newTestApp(t, stub.server.URL)
	now := time.Now().UTC()

	expectUsageRow(mock, "free", 1)
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery("UPDATE usage_counters").
		WithArgs("user-1", 5).
		WillReturnError(errors.New("connection reset"))

	resp := postJSON(router, "/api/ai/generate", models.GenerateRequest{Prompt: "an nda please"})
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Code)
	}

	var out models.GenerateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Success || out.DocumentID == "" {
		t.Fatalf("response should carry the saved document id without success: %+v", out)
	}
}
