// Package llm provides the model backend client and the analyzer
// composition used by both lead scoring and call evaluation.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"leadpulse_backend/platform/ai/ollama"
	"leadpulse_backend/platform/config"
)

const appName = "leadpulse-analyzer"

// Generator is the capability the analyzers need from a model backend:
// send a prompt, get text back, or fail with a typed error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// Client talks to the Ollama backend through an ADK agent without tools.
// Retry policy belongs to callers; the client does exactly one attempt per
// Generate call and enforces the configured timeout even if the backend
// does not.
type Client struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	modelName      string
	timeout        time.Duration
	runMu          sync.Mutex
}

// NewClient builds the model client from configuration.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	backend := ollama.NewModel(ollama.Config{
		BaseURL:     cfg.GetOllamaBaseURL(),
		Model:       cfg.GetOllamaModel(),
		MaxTokens:   cfg.GetLLMMaxTokens(),
		Temperature: 0.1,
		JSONMode:    true,
	})

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "TranscriptAnalyst",
		Model:       backend,
		Description: "Scores sales lead notes and call transcripts as structured JSON.",
		Instruction: "You are an analyst for a real estate sales team. Always respond with a single valid JSON object matching the format requested in the prompt, and nothing else.",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analyst agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analyst runner: %w", err)
	}

	return &Client{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		modelName:      cfg.GetOllamaModel(),
		timeout:        cfg.GetLLMTimeout(),
	}, nil
}

// ModelName returns the configured backend model identifier.
func (c *Client) ModelName() string {
	return c.modelName
}

// Generate sends one prompt and returns the raw model text. Failures are
// always one of ErrTimeout, ErrUnreachable or ErrMalformed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	// The deadline starts before the run lock is taken, so concurrent
	// callers queued behind a hung backend all fail within one timeout
	// instead of queue-position times the timeout.
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.runMu.Lock()
	defer c.runMu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", classify(err)
	}

	sessionID := uuid.New().String()
	userID := "analyzer-" + sessionID

	_, err := c.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", classify(err)
	}
	defer func() {
		_ = c.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			Text: prompt,
		}},
	}

	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var outputText strings.Builder
	for event, err := range c.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", classify(err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			outputText.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(outputText.String())
	if text == "" {
		return "", ErrMalformed
	}
	return text, nil
}

// HealthCheck reports whether the backend answers at all. Used by the
// health endpoints to report hybrid vs deterministic scoring mode.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Generate(ctx, `Reply with {"status": "ok"}`)
	return err == nil
}
