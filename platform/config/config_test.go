package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.OllamaModel != "llama3.2:3b" {
		t.Fatalf("OllamaModel = %q, want llama3.2:3b", cfg.OllamaModel)
	}
	if !cfg.LLMEnabled {
		t.Fatalf("LLMEnabled should default to true")
	}
	if cfg.HotThreshold != 0.7 || cfg.WarmThreshold != 0.4 || cfg.GoodCallThreshold != 0.6 {
		t.Fatalf("unexpected default thresholds: %v/%v/%v", cfg.HotThreshold, cfg.WarmThreshold, cfg.GoodCallThreshold)
	}
	if !closeTo(cfg.LeadWeights.Sum(), 1.0) {
		t.Fatalf("lead weights sum = %v, want 1.0", cfg.LeadWeights.Sum())
	}
	if !closeTo(cfg.CallWeights.Sum(), 1.0) {
		t.Fatalf("call weights sum = %v, want 1.0", cfg.CallWeights.Sum())
	}
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	t.Setenv("WEIGHT_RECENCY", "0.5")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when lead weights do not sum to 1.0")
	}
}

func TestLoadRejectsInvalidCallWeights(t *testing.T) {
	t.Setenv("WEIGHT_RAPPORT", "0.9")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when call weights do not sum to 1.0")
	}
}

func TestLoadRejectsThresholdOutOfRange(t *testing.T) {
	t.Setenv("HOT_THRESHOLD", "1.5")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for threshold above 1.0")
	}
}

func TestLoadRejectsWarmAboveHot(t *testing.T) {
	t.Setenv("HOT_THRESHOLD", "0.3")
	t.Setenv("WARM_THRESHOLD", "0.6")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when warm threshold exceeds hot threshold")
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GOOD_CALL_THRESHOLD", "abc"},
		{"HOT_THRESHOLD", "0,7"},
		{"WEIGHT_RECENCY", "high"},
		{"WEIGHT_RAPPORT", ""},
		{"LLM_TIMEOUT_MS", "60s"},
		{"LLM_MAX_TOKENS", "1k"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q, got valid config", tt.key, tt.value)
			}
		})
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("LLM_TIMEOUT_MS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

func TestLoadAppliesWeightsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := []byte(`
lead_weights:
  recency: 0.30
  engagement: 0.20
  source: 0.10
  budget: 0.20
  notes: 0.20
hot_threshold: 0.75
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}
	t.Setenv("SCORING_WEIGHTS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with weights file failed: %v", err)
	}

	if !closeTo(cfg.LeadWeights.Recency, 0.30) {
		t.Fatalf("recency weight = %v, want 0.30 from file", cfg.LeadWeights.Recency)
	}
	if cfg.HotThreshold != 0.75 {
		t.Fatalf("hot threshold = %v, want 0.75 from file", cfg.HotThreshold)
	}
	// Call weights stay at env defaults when the file omits them.
	if !closeTo(cfg.CallWeights.Sum(), 1.0) {
		t.Fatalf("call weights sum = %v, want 1.0", cfg.CallWeights.Sum())
	}
}

func TestLoadRejectsWeightsFileBreakingInvariant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := []byte(`
lead_weights:
  recency: 0.90
  engagement: 0.20
  source: 0.10
  budget: 0.20
  notes: 0.20
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}
	t.Setenv("SCORING_WEIGHTS_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when file weights break the sum invariant")
	}
}

func TestLoadRejectsMissingWeightsFile(t *testing.T) {
	t.Setenv("SCORING_WEIGHTS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unreadable weights file")
	}
}

func closeTo(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
