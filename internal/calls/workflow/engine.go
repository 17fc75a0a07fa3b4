// Package workflow runs the call evaluation pipeline: four transcript
// analysis stages fan out concurrently, an aggregation stage joins them
// into a single quality verdict and a summary stage narrates the result.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"leadpulse_backend/internal/llm"
	"leadpulse_backend/platform/apperr"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Stage names. The analysis stages are independent of each other;
// aggregation depends on all four.
const (
	StageRapport       = "rapport_building"
	StageNeedDiscovery = "need_discovery"
	StageClosing       = "closing_attempt"
	StageCompliance    = "compliance_risk"
	StageAggregate     = "aggregate"
)

// minTranscriptLength is the shortest trimmed transcript the engine will
// analyze. The transport layer rejects shorter payloads earlier; this
// bound is on the usable text after trimming.
const minTranscriptLength = 20

// neutralScore substitutes for a stage that failed entirely, so one bad
// stage never zeroes the whole verdict.
const neutralScore = 0.5

// StageState tracks a stage through the run.
type StageState string

const (
	StagePending   StageState = "pending"
	StageRunning   StageState = "running"
	StageCompleted StageState = "completed"
	StageFailed    StageState = "failed"
)

// StageResult is the terminal record of one stage.
type StageResult struct {
	Stage    string
	State    StageState
	Score    float64
	Evidence []string
	Degraded bool
}

// workflowState is the shared scoreboard the scheduler and stages write
// to. All access goes through the mutex.
type workflowState struct {
	mu      sync.Mutex
	results map[string]StageResult
}

func newWorkflowState(stages []stageDef) *workflowState {
	results := make(map[string]StageResult, len(stages))
	for _, s := range stages {
		results[s.name] = StageResult{Stage: s.name, State: StagePending}
	}
	return &workflowState{results: results}
}

func (s *workflowState) set(r StageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.Stage] = r
}

func (s *workflowState) get(name string) StageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[name]
}

func (s *workflowState) terminal(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.results[name].State
	return state == StageCompleted || state == StageFailed
}

// stageDef declares one node of the pipeline: its name, the stages it
// waits for and the analyzer that produces its score.
type stageDef struct {
	name     string
	deps     []string
	analyzer llm.TextAnalyzer
}

// Transcript is the engine's input.
type Transcript struct {
	CallID          string
	LeadID          string
	Text            string
	DurationSeconds int
}

// Verdict is the engine's output: the aggregate quality score plus the
// per-dimension results and the narrative summary.
type Verdict struct {
	CallID          string
	QualityScore    float64
	IsGoodCall      bool
	Stages          map[string]StageResult
	Summary         string
	KeyPoints       []string
	NextActions     []string
	DegradedStages  []string
	SummaryDegraded bool
}

// Engine owns the stage graph and the summarizer.
type Engine struct {
	cfg    config.CallEvalConfig
	stages []stageDef
	summ   *summarizer
	log    *logger.Logger
}

// New builds the call evaluation engine. gen may be nil; every stage then
// runs its deterministic heuristic directly.
func New(cfg config.CallEvalConfig, gen llm.Generator, log *logger.Logger) *Engine {
	build := func(name string, heuristic llm.HeuristicFunc) stageDef {
		var primary llm.TextAnalyzer
		if gen != nil {
			primary = llm.NewModelBacked(gen, stagePrompt(name), parseStageResponse)
		}
		return stageDef{
			name:     name,
			analyzer: llm.WithFallback(primary, heuristic, 1.0, "call_eval:"+name, log),
		}
	}

	return &Engine{
		cfg: cfg,
		stages: []stageDef{
			build(StageRapport, RapportHeuristic),
			build(StageNeedDiscovery, NeedDiscoveryHeuristic),
			build(StageClosing, ClosingHeuristic),
			build(StageCompliance, ComplianceRiskHeuristic),
		},
		summ: newSummarizer(gen),
		log:  log,
	}
}

// Evaluate runs the full pipeline for one transcript.
func (e *Engine) Evaluate(ctx context.Context, tr Transcript) (Verdict, error) {
	text := strings.TrimSpace(tr.Text)
	if len(text) < minTranscriptLength {
		return Verdict{}, apperr.Validation(
			fmt.Sprintf("transcript must be at least %d characters", minTranscriptLength))
	}

	state := newWorkflowState(e.stages)
	if err := e.runStages(ctx, tr.CallID, text, state); err != nil {
		return Verdict{}, err
	}

	verdict := e.aggregate(tr.CallID, state)

	summary, keyPoints, nextActions, summaryDegraded := e.summ.Summarize(ctx, verdict)
	verdict.Summary = summary
	verdict.KeyPoints = keyPoints
	verdict.NextActions = nextActions
	verdict.SummaryDegraded = summaryDegraded

	if !strings.Contains(text, ":") {
		verdict.KeyPoints = append(verdict.KeyPoints, "Transcript has no speaker markers; turn structure was not verified")
	}

	return verdict, nil
}

// runStages schedules the graph in waves: every stage whose dependencies
// are terminal runs concurrently with its peers, then the next wave is
// computed. With the current graph this is a single wave of four, but the
// scheduler does not assume that.
func (e *Engine) runStages(ctx context.Context, callID, text string, state *workflowState) error {
	remaining := make([]stageDef, len(e.stages))
	copy(remaining, e.stages)

	for len(remaining) > 0 {
		var wave, blocked []stageDef
		for _, s := range remaining {
			if e.depsTerminal(s, state) {
				wave = append(wave, s)
			} else {
				blocked = append(blocked, s)
			}
		}
		if len(wave) == 0 {
			return apperr.Internal("stage graph deadlocked")
		}

		group, gctx := errgroup.WithContext(ctx)
		for _, s := range wave {
			group.Go(func() error {
				e.runStage(gctx, callID, text, s, state)
				return gctx.Err()
			})
		}
		if err := group.Wait(); err != nil {
			return apperr.Wrap(apperr.KindUnavailable, "call evaluation canceled", err)
		}

		remaining = blocked
	}
	return nil
}

func (e *Engine) depsTerminal(s stageDef, state *workflowState) bool {
	for _, dep := range s.deps {
		if !state.terminal(dep) {
			return false
		}
	}
	return true
}

// runStage executes one analysis stage. Analyzer errors mark the stage
// Failed; aggregation later substitutes the neutral default for it.
func (e *Engine) runStage(ctx context.Context, callID, text string, s stageDef, state *workflowState) {
	state.set(StageResult{Stage: s.name, State: StageRunning})

	start := time.Now()
	sig, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		state.set(StageResult{Stage: s.name, State: StageFailed})
		e.log.WithContext(ctx).StageCompleted(callID, s.name, 0, true, time.Since(start).Milliseconds())
		return
	}

	state.set(StageResult{
		Stage:    s.name,
		State:    StageCompleted,
		Score:    sig.Score,
		Evidence: sig.Evidence,
		Degraded: sig.Degraded,
	})
	e.log.WithContext(ctx).StageCompleted(callID, s.name, sig.Score, sig.Degraded, time.Since(start).Milliseconds())
}

// aggregate joins the four dimension results into the weighted quality
// score. Compliance enters inverted: low risk raises quality.
func (e *Engine) aggregate(callID string, state *workflowState) Verdict {
	stages := make(map[string]StageResult, len(e.stages))
	var degraded []string

	resolve := func(name string) float64 {
		r := state.get(name)
		if r.State == StageFailed {
			r.Score = neutralScore
			r.Evidence = []string{"Stage analysis unavailable, neutral default applied"}
			r.Degraded = true
		}
		if r.Degraded {
			degraded = append(degraded, name)
		}
		stages[name] = r
		return r.Score
	}

	rapport := resolve(StageRapport)
	need := resolve(StageNeedDiscovery)
	closing := resolve(StageClosing)
	risk := resolve(StageCompliance)

	w := e.cfg.GetCallWeights()
	quality := w.Rapport*rapport +
		w.NeedDiscovery*need +
		w.Closing*closing +
		w.Compliance*(1-risk)
	quality = llm.Clamp01(quality)

	sort.Strings(degraded)

	return Verdict{
		CallID:         callID,
		QualityScore:   quality,
		IsGoodCall:     quality >= e.cfg.GetGoodCallThreshold(),
		Stages:         stages,
		DegradedStages: degraded,
	}
}
