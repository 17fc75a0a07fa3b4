package calls

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadpulse_backend/internal/calls/transport"
	apphttp "leadpulse_backend/internal/http"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/httpkit"
	"leadpulse_backend/platform/logger"
	"leadpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const sampleTranscript = `Agent: Good morning! This is Priya from Lakeview Estates. How are you?
Customer: Fine, thank you.
Agent: What kind of home are you looking for?
Customer: A villa, around 2 crore.
Agent: Got it. When do you plan to move in?
Customer: Within six months.
Agent: Perfect. Shall we schedule a site visit for Sunday? I will send the directions.
Customer: Sounds good.`

func testConfig() *config.Config {
	return &config.Config{
		GoodCallThreshold: 0.6,
		CallWeights: config.CallWeights{
			Rapport:       0.25,
			NeedDiscovery: 0.30,
			Closing:       0.30,
			Compliance:    0.15,
		},
	}
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("development")
	engine := gin.New()
	rctx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 engine.Group("/api/v1"),
		ScoringRateLimiter: httpkit.NewIPRateLimiter(1000, 1000, log),
	}

	NewModule(testConfig(), nil, validator.New(), log).RegisterRoutes(rctx)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCallEvalEndpoint(t *testing.T) {
	engine := testRouter(t)

	rec := postJSON(t, engine, "/api/v1/call-eval", transport.CallEvalRequest{
		CallID:          "call-100",
		LeadID:          "lead-1",
		Transcript:      sampleTranscript,
		DurationSeconds: 240,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transport.CallEvalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.CallID != "call-100" {
		t.Fatalf("call_id = %q, want call-100", resp.CallID)
	}
	if !resp.IsGoodCall || resp.QualityScore < 0.6 {
		t.Fatalf("expected good call, got quality %v", resp.QualityScore)
	}
	if resp.Labels.ComplianceRisk.Score > 0.2 {
		t.Fatalf("clean transcript flagged risky: %+v", resp.Labels.ComplianceRisk)
	}
	if resp.Summary == "" || len(resp.NextActions) == 0 {
		t.Fatalf("response missing summary or next actions: %+v", resp)
	}
	if resp.ModelMetadata.ModelName != "deterministic" {
		t.Fatalf("model_name = %q, want deterministic without a backend", resp.ModelMetadata.ModelName)
	}
	if !resp.ModelMetadata.SummaryDegraded {
		t.Fatalf("summary should be templated without a model backend")
	}
}

func TestCallEvalEndpointValidation(t *testing.T) {
	engine := testRouter(t)

	tests := []struct {
		name string
		req  transport.CallEvalRequest
	}{
		{"missing call id", transport.CallEvalRequest{Transcript: sampleTranscript}},
		{"missing transcript", transport.CallEvalRequest{CallID: "c1"}},
		{"short transcript", transport.CallEvalRequest{CallID: "c1", Transcript: "hi"}},
		{"negative duration", transport.CallEvalRequest{CallID: "c1", Transcript: sampleTranscript, DurationSeconds: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, engine, "/api/v1/call-eval", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCallEvalEndpointWhitespaceTranscript(t *testing.T) {
	engine := testRouter(t)

	// Long enough to pass DTO validation, rejected by the engine after
	// trimming.
	rec := postJSON(t, engine, "/api/v1/call-eval", transport.CallEvalRequest{
		CallID:     "c1",
		Transcript: strings.Repeat(" ", 40) + "hi",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestCallEvalHealthEndpoint(t *testing.T) {
	engine := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/call-eval/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["evaluation_mode"] != "deterministic" {
		t.Fatalf("evaluation_mode = %v, want deterministic", resp["evaluation_mode"])
	}
}
