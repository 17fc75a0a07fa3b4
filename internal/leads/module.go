// Package leads bundles the lead priority bounded context: scoring rules,
// the hybrid notes analyzer and the HTTP surface.
package leads

import (
	apphttp "leadpulse_backend/internal/http"
	"leadpulse_backend/internal/leads/handler"
	"leadpulse_backend/internal/leads/scoring"
	"leadpulse_backend/internal/llm"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/logger"
	"leadpulse_backend/platform/validator"
)

// Module is the lead priority bounded context.
type Module struct {
	handler *handler.Handler
	service *scoring.Service
}

// NewModule wires the lead priority module. client may be nil when the
// model backend is disabled; scoring then runs in pure-heuristic mode.
func NewModule(cfg config.ScoringConfig, client *llm.Client, val *validator.Validator, log *logger.Logger) *Module {
	var gen llm.Generator
	var health handler.HealthChecker
	modelName := ""
	if client != nil {
		gen = client
		health = client
		modelName = client.ModelName()
	}

	svc := scoring.New(cfg, gen, log)
	h := handler.New(svc, cfg, val, log, health, modelName, client != nil)

	return &Module{handler: h, service: svc}
}

// Name implements the HTTP module interface.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts /api/v1/lead-priority.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/lead-priority")
	group.Use(ctx.ScoringRateLimiter.RateLimit())
	m.handler.RegisterRoutes(group)
}

// Service exposes the scoring service for other modules and tests.
func (m *Module) Service() *scoring.Service {
	return m.service
}
