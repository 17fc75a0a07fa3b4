// Package handler exposes the lead priority endpoint.
package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"leadpulse_backend/internal/leads/scoring"
	"leadpulse_backend/internal/leads/transport"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/httpkit"
	"leadpulse_backend/platform/logger"
	"leadpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// HealthChecker reports whether the model backend currently answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Handler serves the lead priority routes.
type Handler struct {
	svc        *scoring.Service
	cfg        config.ScoringConfig
	val        *validator.Validator
	log        *logger.Logger
	health     HealthChecker // nil when the model backend is disabled
	modelName  string
	llmEnabled bool
}

// New creates the lead priority handler.
func New(svc *scoring.Service, cfg config.ScoringConfig, val *validator.Validator, log *logger.Logger, health HealthChecker, modelName string, llmEnabled bool) *Handler {
	return &Handler{
		svc:        svc,
		cfg:        cfg,
		val:        val,
		log:        log,
		health:     health,
		modelName:  modelName,
		llmEnabled: llmEnabled,
	}
}

// RegisterRoutes mounts the lead priority routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Prioritize)
	rg.GET("/health", h.Health)
}

// Prioritize scores a batch of leads and returns them ranked by priority.
func (h *Handler) Prioritize(c *gin.Context) {
	var req transport.PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	useLLM := h.llmEnabled && c.DefaultQuery("use_llm", "true") != "false"

	start := time.Now()
	ranked, err := h.svc.PrioritizeLeads(c.Request.Context(), req.Leads, req.MaxResults, useLLM)
	if httpkit.HandleError(c, err) {
		return
	}

	degraded := 0
	scores := make([]transport.LeadPriorityScore, 0, len(ranked))
	for _, b := range ranked {
		if b.Degraded {
			degraded++
		}
		scores = append(scores, toTransport(b))
	}

	h.log.WithContext(c.Request.Context()).LeadBatchScored(len(req.Leads), len(scores), useLLM, time.Since(start).Milliseconds())

	weights := h.cfg.GetLeadWeights()
	httpkit.OK(c, transport.PriorityResponse{
		RankedLeads:    scores,
		TotalProcessed: len(req.Leads),
		ModelMetadata: transport.ModelMetadata{
			ModelUsed:     modelUsed(h.modelName, useLLM),
			LLMEnabled:    useLLM,
			DegradedLeads: degraded,
			ScoringWeights: map[string]float64{
				"recency":    weights.Recency,
				"engagement": weights.Engagement,
				"source":     weights.Source,
				"budget":     weights.Budget,
				"notes":      weights.Notes,
			},
			Thresholds: map[string]float64{
				"hot":  h.cfg.GetHotThreshold(),
				"warm": h.cfg.GetWarmThreshold(),
			},
		},
	})
}

// Health reports the scoring mode for the lead priority service.
func (h *Handler) Health(c *gin.Context) {
	llmAvailable := false
	if h.health != nil {
		llmAvailable = h.health.HealthCheck(c.Request.Context())
	}

	mode := "deterministic"
	if llmAvailable {
		mode = "hybrid"
	}

	httpkit.OK(c, gin.H{
		"status":        "healthy",
		"llm_available": llmAvailable,
		"scoring_mode":  mode,
	})
}

func toTransport(b scoring.Breakdown) transport.LeadPriorityScore {
	return transport.LeadPriorityScore{
		LeadID:          b.LeadID,
		PriorityScore:   round3(b.Total),
		PriorityBucket:  b.Bucket,
		Reasons:         b.Reasons,
		RecencyScore:    round3(b.Recency),
		EngagementScore: round3(b.Engagement),
		SourceScore:     round3(b.Source),
		BudgetScore:     round3(b.Budget),
		NotesScore:      round3(b.Notes),
	}
}

func modelUsed(modelName string, useLLM bool) string {
	if useLLM && modelName != "" {
		return modelName
	}
	return "deterministic"
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
