// Package handler exposes the call evaluation endpoint.
package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"leadpulse_backend/internal/calls/transport"
	"leadpulse_backend/internal/calls/workflow"
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

// Handler serves the call evaluation routes.
type Handler struct {
	engine    *workflow.Engine
	val       *validator.Validator
	log       *logger.Logger
	health    HealthChecker // nil when the model backend is disabled
	modelName string
}

// New creates the call evaluation handler.
func New(engine *workflow.Engine, val *validator.Validator, log *logger.Logger, health HealthChecker, modelName string) *Handler {
	return &Handler{
		engine:    engine,
		val:       val,
		log:       log,
		health:    health,
		modelName: modelName,
	}
}

// RegisterRoutes mounts the call evaluation routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Evaluate)
	rg.GET("/health", h.Health)
}

// Evaluate runs the stage workflow over one transcript.
func (h *Handler) Evaluate(c *gin.Context) {
	var req transport.CallEvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	start := time.Now()
	verdict, err := h.engine.Evaluate(c.Request.Context(), workflow.Transcript{
		CallID:          req.CallID,
		LeadID:          req.LeadID,
		Text:            req.Transcript,
		DurationSeconds: req.DurationSeconds,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toTransport(verdict, h.modelName, time.Since(start).Milliseconds()))
}

// Health reports the evaluation mode for the call evaluation service.
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
		"status":          "healthy",
		"llm_available":   llmAvailable,
		"evaluation_mode": mode,
	})
}

func toTransport(v workflow.Verdict, modelName string, latencyMs int64) transport.CallEvalResponse {
	name := modelName
	if name == "" || len(v.DegradedStages) == len(v.Stages) {
		name = "deterministic"
	}

	degraded := v.DegradedStages
	if degraded == nil {
		degraded = []string{}
	}
	keyPoints := v.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	nextActions := v.NextActions
	if nextActions == nil {
		nextActions = []string{}
	}

	return transport.CallEvalResponse{
		CallID:       v.CallID,
		QualityScore: round3(v.QualityScore),
		IsGoodCall:   v.IsGoodCall,
		Labels: transport.CallLabels{
			RapportBuilding: toDimension(v.Stages[workflow.StageRapport]),
			NeedDiscovery:   toDimension(v.Stages[workflow.StageNeedDiscovery]),
			ClosingAttempt:  toDimension(v.Stages[workflow.StageClosing]),
			ComplianceRisk:  toDimension(v.Stages[workflow.StageCompliance]),
		},
		Summary:     v.Summary,
		KeyPoints:   keyPoints,
		NextActions: nextActions,
		ModelMetadata: transport.ModelMetadata{
			ModelName:       name,
			LatencyMs:       latencyMs,
			DegradedStages:  degraded,
			SummaryDegraded: v.SummaryDegraded,
		},
	}
}

func toDimension(r workflow.StageResult) transport.DimensionScore {
	return transport.DimensionScore{
		Score:    round3(r.Score),
		Evidence: r.Evidence,
		Degraded: r.Degraded,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
