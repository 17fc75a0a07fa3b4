package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadpulse_backend/internal/calls"
	apphttp "leadpulse_backend/internal/http"
	"leadpulse_backend/internal/http/router"
	"leadpulse_backend/internal/leads"
	"leadpulse_backend/internal/llm"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/logger"
	"leadpulse_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Shared validator instance for dependency injection
	val := validator.New()

	// Model backend client. Startup does not require it: when Ollama is
	// down or disabled every endpoint serves deterministic heuristics.
	llmClient := initModelClient(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(cfg, llmClient, val, log)
	callsModule := calls.NewModule(cfg, llmClient, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Modules: []apphttp.Module{
			leadsModule,
			callsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initModelClient builds the Ollama-backed client and probes it once with
// retries. A failed probe is logged, not fatal; the client is still
// returned so later requests can recover when the backend comes up.
func initModelClient(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) *llm.Client {
	if !cfg.IsLLMEnabled() {
		log.Warn("model backend disabled; scoring runs in deterministic mode")
		return nil
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize model client", "error", err)
		panic("failed to initialize model client: " + err.Error())
	}

	if err := withRetry(ctx, log, "model backend probe", 3, 2*time.Second, func() error {
		if !client.HealthCheck(ctx) {
			return errors.New("model backend not responding")
		}
		return nil
	}); err != nil {
		log.Warn("model backend unreachable at startup; degrading to heuristics until it recovers",
			"model", cfg.GetOllamaModel(), "error", err)
		return client
	}

	log.Info("model backend ready", "model", cfg.GetOllamaModel(), "base_url", cfg.GetOllamaBaseURL())
	return client
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
