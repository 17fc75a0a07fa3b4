package leads

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "leadpulse_backend/internal/http"
	"leadpulse_backend/internal/leads/transport"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/httpkit"
	"leadpulse_backend/platform/logger"
	"leadpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	return &config.Config{
		HotThreshold:          0.7,
		WarmThreshold:         0.4,
		NotesBlendModelWeight: 0.6,
		LeadWeights: config.LeadWeights{
			Recency:    0.25,
			Engagement: 0.20,
			Source:     0.15,
			Budget:     0.20,
			Notes:      0.20,
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

func TestPrioritizeEndpoint(t *testing.T) {
	engine := testRouter(t)

	req := transport.PriorityRequest{
		MaxResults: 10,
		Leads: []transport.LeadInput{
			{LeadID: "cold", Source: "social_media", Budget: 1000000, LastActivityMinutesAgo: 30000, Status: "new"},
			{LeadID: "hot", Source: "referral", Budget: 60000000, LastActivityMinutesAgo: 5, PastInteractions: 8, Status: "qualified"},
		},
	}

	rec := postJSON(t, engine, "/api/v1/lead-priority", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transport.PriorityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.TotalProcessed != 2 {
		t.Fatalf("total_processed = %d, want 2", resp.TotalProcessed)
	}
	if len(resp.RankedLeads) != 2 || resp.RankedLeads[0].LeadID != "hot" {
		t.Fatalf("unexpected ranking: %+v", resp.RankedLeads)
	}
	if resp.RankedLeads[0].PriorityBucket != "hot" {
		t.Fatalf("bucket = %q, want hot", resp.RankedLeads[0].PriorityBucket)
	}
	if resp.ModelMetadata.ModelUsed != "deterministic" {
		t.Fatalf("model_used = %q, want deterministic", resp.ModelMetadata.ModelUsed)
	}
	if resp.ModelMetadata.ScoringWeights["recency"] != 0.25 {
		t.Fatalf("scoring weights missing: %+v", resp.ModelMetadata.ScoringWeights)
	}
}

func TestPrioritizeEndpointEmptyBatch(t *testing.T) {
	engine := testRouter(t)

	rec := postJSON(t, engine, "/api/v1/lead-priority", transport.PriorityRequest{
		MaxResults: 5,
		Leads:      []transport.LeadInput{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transport.PriorityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalProcessed != 0 || len(resp.RankedLeads) != 0 {
		t.Fatalf("expected empty result, got %+v", resp)
	}
}

func TestPrioritizeEndpointValidation(t *testing.T) {
	engine := testRouter(t)

	valid := transport.LeadInput{LeadID: "x", Source: "website", Status: "new"}

	tests := []struct {
		name string
		req  transport.PriorityRequest
	}{
		{"zero max results", transport.PriorityRequest{MaxResults: 0, Leads: []transport.LeadInput{valid}}},
		{"negative max results", transport.PriorityRequest{MaxResults: -1, Leads: []transport.LeadInput{valid}}},
		{"max results over cap", transport.PriorityRequest{MaxResults: 500, Leads: []transport.LeadInput{valid}}},
		{"bad status", transport.PriorityRequest{MaxResults: 5, Leads: []transport.LeadInput{
			{LeadID: "x", Source: "website", Status: "archived"},
		}}},
		{"missing lead id", transport.PriorityRequest{MaxResults: 5, Leads: []transport.LeadInput{
			{Source: "website", Status: "new"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, engine, "/api/v1/lead-priority", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPrioritizeEndpointRejectsMalformedJSON(t *testing.T) {
	engine := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lead-priority", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLeadPriorityHealthEndpoint(t *testing.T) {
	engine := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lead-priority/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["scoring_mode"] != "deterministic" {
		t.Fatalf("scoring_mode = %v, want deterministic without a model backend", resp["scoring_mode"])
	}
}
