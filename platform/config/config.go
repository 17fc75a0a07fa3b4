// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// weightTolerance is how far a weight set may drift from summing to 1.0
// before Load rejects it.
const weightTolerance = 1e-9

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// LLMConfig provides settings for the model backend client.
type LLMConfig interface {
	GetOllamaBaseURL() string
	GetOllamaModel() string
	GetLLMTimeout() time.Duration
	GetLLMMaxTokens() int
	IsLLMEnabled() bool
}

// ScoringConfig provides settings for the lead priority scorer.
type ScoringConfig interface {
	GetHotThreshold() float64
	GetWarmThreshold() float64
	GetLeadWeights() LeadWeights
	GetNotesBlendModelWeight() float64
}

// CallEvalConfig provides settings for the call evaluation workflow.
type CallEvalConfig interface {
	GetGoodCallThreshold() float64
	GetCallWeights() CallWeights
}

// =============================================================================
// Weight Sets
// =============================================================================

// LeadWeights holds the five lead sub-score weights. They must sum to 1.0.
type LeadWeights struct {
	Recency    float64 `yaml:"recency"`
	Engagement float64 `yaml:"engagement"`
	Source     float64 `yaml:"source"`
	Budget     float64 `yaml:"budget"`
	Notes      float64 `yaml:"notes"`
}

// Sum returns the total of all lead weights.
func (w LeadWeights) Sum() float64 {
	return w.Recency + w.Engagement + w.Source + w.Budget + w.Notes
}

// CallWeights holds the four call dimension weights. They must sum to 1.0.
// Compliance weights the inverted risk score, see the workflow aggregation.
type CallWeights struct {
	Rapport       float64 `yaml:"rapport"`
	NeedDiscovery float64 `yaml:"need_discovery"`
	Closing       float64 `yaml:"closing"`
	Compliance    float64 `yaml:"compliance"`
}

// Sum returns the total of all call weights.
func (w CallWeights) Sum() float64 {
	return w.Rapport + w.NeedDiscovery + w.Closing + w.Compliance
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	OllamaBaseURL string
	OllamaModel   string
	LLMTimeout    time.Duration
	LLMMaxTokens  int
	LLMEnabled    bool

	HotThreshold          float64
	WarmThreshold         float64
	GoodCallThreshold     float64
	NotesBlendModelWeight float64
	LeadWeights           LeadWeights
	CallWeights           CallWeights
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// LLMConfig implementation
func (c *Config) GetOllamaBaseURL() string     { return c.OllamaBaseURL }
func (c *Config) GetOllamaModel() string       { return c.OllamaModel }
func (c *Config) GetLLMTimeout() time.Duration { return c.LLMTimeout }
func (c *Config) GetLLMMaxTokens() int         { return c.LLMMaxTokens }
func (c *Config) IsLLMEnabled() bool           { return c.LLMEnabled }

// ScoringConfig implementation
func (c *Config) GetHotThreshold() float64          { return c.HotThreshold }
func (c *Config) GetWarmThreshold() float64         { return c.WarmThreshold }
func (c *Config) GetLeadWeights() LeadWeights       { return c.LeadWeights }
func (c *Config) GetNotesBlendModelWeight() float64 { return c.NotesBlendModelWeight }

// CallEvalConfig implementation
func (c *Config) GetGoodCallThreshold() float64 { return c.GoodCallThreshold }
func (c *Config) GetCallWeights() CallWeights   { return c.CallWeights }

// weightsFile is the optional YAML override for scoring weights and
// thresholds. Unset fields keep their env/default values.
type weightsFile struct {
	LeadWeights   *LeadWeights `yaml:"lead_weights"`
	CallWeights   *CallWeights `yaml:"call_weights"`
	HotThreshold  *float64     `yaml:"hot_threshold"`
	WarmThreshold *float64     `yaml:"warm_threshold"`
	GoodCall      *float64     `yaml:"good_call_threshold"`
}

// Load reads configuration from environment variables and, when
// SCORING_WEIGHTS_FILE is set, merges the YAML weight overrides on top.
// Invariant violations (weights not summing to 1.0, thresholds out of
// range) fail here, never per request.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Malformed numbers must fail loading, not coerce to zero: a mangled
	// threshold would otherwise silently change scoring policy.
	var parseErrs []error
	floatEnv := func(key, fallback string) float64 {
		raw := getEnv(key, fallback)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("%s: invalid number %q", key, raw))
		}
		return v
	}
	intEnv := func(key, fallback string) int64 {
		raw := getEnv(key, fallback)
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("%s: invalid integer %q", key, raw))
		}
		return v
	}

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.2:3b"),
		LLMTimeout:    time.Duration(intEnv("LLM_TIMEOUT_MS", "60000")) * time.Millisecond,
		LLMMaxTokens:  int(intEnv("LLM_MAX_TOKENS", "1024")),
		LLMEnabled:    strings.EqualFold(getEnv("LLM_ENABLED", "true"), "true"),

		HotThreshold:          floatEnv("HOT_THRESHOLD", "0.7"),
		WarmThreshold:         floatEnv("WARM_THRESHOLD", "0.4"),
		GoodCallThreshold:     floatEnv("GOOD_CALL_THRESHOLD", "0.6"),
		NotesBlendModelWeight: floatEnv("NOTES_BLEND_MODEL_WEIGHT", "0.6"),
		LeadWeights: LeadWeights{
			Recency:    floatEnv("WEIGHT_RECENCY", "0.25"),
			Engagement: floatEnv("WEIGHT_ENGAGEMENT", "0.20"),
			Source:     floatEnv("WEIGHT_SOURCE", "0.15"),
			Budget:     floatEnv("WEIGHT_BUDGET", "0.20"),
			Notes:      floatEnv("WEIGHT_NOTES", "0.20"),
		},
		CallWeights: CallWeights{
			Rapport:       floatEnv("WEIGHT_RAPPORT", "0.25"),
			NeedDiscovery: floatEnv("WEIGHT_NEED_DISCOVERY", "0.30"),
			Closing:       floatEnv("WEIGHT_CLOSING", "0.30"),
			Compliance:    floatEnv("WEIGHT_COMPLIANCE", "0.15"),
		},
	}

	if len(parseErrs) > 0 {
		return nil, errors.Join(parseErrs...)
	}

	if path := getEnv("SCORING_WEIGHTS_FILE", ""); path != "" {
		if err := applyWeightsFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyWeightsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scoring weights file %s: %w", path, err)
	}
	var overrides weightsFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse scoring weights file %s: %w", path, err)
	}
	if overrides.LeadWeights != nil {
		cfg.LeadWeights = *overrides.LeadWeights
	}
	if overrides.CallWeights != nil {
		cfg.CallWeights = *overrides.CallWeights
	}
	if overrides.HotThreshold != nil {
		cfg.HotThreshold = *overrides.HotThreshold
	}
	if overrides.WarmThreshold != nil {
		cfg.WarmThreshold = *overrides.WarmThreshold
	}
	if overrides.GoodCall != nil {
		cfg.GoodCallThreshold = *overrides.GoodCall
	}
	return nil
}

func (c *Config) validate() error {
	if diff := math.Abs(c.LeadWeights.Sum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("lead scoring weights must sum to 1.0, got %.12f", c.LeadWeights.Sum())
	}
	if diff := math.Abs(c.CallWeights.Sum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("call evaluation weights must sum to 1.0, got %.12f", c.CallWeights.Sum())
	}
	for name, v := range map[string]float64{
		"HOT_THRESHOLD":            c.HotThreshold,
		"WARM_THRESHOLD":           c.WarmThreshold,
		"GOOD_CALL_THRESHOLD":      c.GoodCallThreshold,
		"NOTES_BLEND_MODEL_WEIGHT": c.NotesBlendModelWeight,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %f", name, v)
		}
	}
	if c.WarmThreshold > c.HotThreshold {
		return fmt.Errorf("WARM_THRESHOLD (%f) must not exceed HOT_THRESHOLD (%f)", c.WarmThreshold, c.HotThreshold)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_MS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
