// Package calls bundles the call evaluation bounded context: the stage
// workflow, transcript heuristics and the HTTP surface.
package calls

import (
	"leadpulse_backend/internal/calls/handler"
	"leadpulse_backend/internal/calls/workflow"
	apphttp "leadpulse_backend/internal/http"
	"leadpulse_backend/internal/llm"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/logger"
	"leadpulse_backend/platform/validator"
)

// Module is the call evaluation bounded context.
type Module struct {
	handler *handler.Handler
	engine  *workflow.Engine
}

// NewModule wires the call evaluation module. client may be nil when the
// model backend is disabled; stages then run their heuristics directly.
func NewModule(cfg config.CallEvalConfig, client *llm.Client, val *validator.Validator, log *logger.Logger) *Module {
	var gen llm.Generator
	var health handler.HealthChecker
	modelName := ""
	if client != nil {
		gen = client
		health = client
		modelName = client.ModelName()
	}

	engine := workflow.New(cfg, gen, log)
	h := handler.New(engine, val, log, health, modelName)

	return &Module{handler: h, engine: engine}
}

// Name implements the HTTP module interface.
func (m *Module) Name() string { return "calls" }

// RegisterRoutes mounts /api/v1/call-eval.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/call-eval")
	group.Use(ctx.ScoringRateLimiter.RateLimit())
	m.handler.RegisterRoutes(group)
}

// Engine exposes the workflow engine for other modules and tests.
func (m *Module) Engine() *workflow.Engine {
	return m.engine
}
