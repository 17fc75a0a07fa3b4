package llm

import (
	"context"

	"leadpulse_backend/platform/logger"
)

// Signal is the common output of every text analyzer: a score in [0,1]
// and the evidence behind it. Degraded marks results produced by the
// heuristic path after a model failure.
type Signal struct {
	Score    float64
	Evidence []string
	Degraded bool
}

// TextAnalyzer scores a piece of free text along one dimension.
// Implementations must clamp scores to [0,1].
type TextAnalyzer interface {
	Analyze(ctx context.Context, input string) (Signal, error)
}

// HeuristicFunc adapts a pure scoring function to TextAnalyzer.
// Heuristics are total: they never return an error.
type HeuristicFunc func(input string) Signal

func (f HeuristicFunc) Analyze(_ context.Context, input string) (Signal, error) {
	return f(input), nil
}

// ModelBacked asks the model backend to score the input. The prompt
// builder and response parser are supplied per dimension.
type ModelBacked struct {
	gen    Generator
	prompt func(input string) string
	parse  func(raw string) (Signal, error)
}

// NewModelBacked builds a model-backed analyzer for one dimension.
func NewModelBacked(gen Generator, prompt func(string) string, parse func(string) (Signal, error)) *ModelBacked {
	return &ModelBacked{gen: gen, prompt: prompt, parse: parse}
}

func (a *ModelBacked) Analyze(ctx context.Context, input string) (Signal, error) {
	raw, err := a.gen.Generate(ctx, a.prompt(input))
	if err != nil {
		return Signal{}, err
	}
	sig, err := a.parse(raw)
	if err != nil {
		return Signal{}, ErrMalformed
	}
	sig.Score = Clamp01(sig.Score)
	return sig, nil
}

// fallback composes a model-backed analyzer with a total heuristic one.
// Business logic only ever sees a single TextAnalyzer; the degradation
// policy lives here instead of being branched through call sites.
type fallback struct {
	primary   TextAnalyzer
	heuristic TextAnalyzer
	blend     float64 // weight of the model score when both succeed
	component string
	log       *logger.Logger
}

// WithFallback wraps primary so that any model failure degrades to the
// heuristic analyzer. On failure the result is exactly the heuristic
// result, with only the Degraded flag set. When both succeed the scores
// are blended (blend = model weight) and the evidence merged, so keyword
// evidence is never lost. A nil primary means pure-heuristic mode.
func WithFallback(primary, heuristic TextAnalyzer, blend float64, component string, log *logger.Logger) TextAnalyzer {
	return &fallback{
		primary:   primary,
		heuristic: heuristic,
		blend:     blend,
		component: component,
		log:       log,
	}
}

func (f *fallback) Analyze(ctx context.Context, input string) (Signal, error) {
	heurSig, _ := f.heuristic.Analyze(ctx, input)

	if f.primary == nil {
		return heurSig, nil
	}

	modelSig, err := f.primary.Analyze(ctx, input)
	if err != nil {
		if f.log != nil {
			f.log.WithContext(ctx).ModelFallback(f.component, err.Error())
		}
		heurSig.Degraded = true
		return heurSig, nil
	}

	merged := Signal{
		Score:    Clamp01(f.blend*modelSig.Score + (1-f.blend)*heurSig.Score),
		Evidence: append(append([]string{}, modelSig.Evidence...), heurSig.Evidence...),
	}
	return merged, nil
}

// Clamp01 bounds a score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
