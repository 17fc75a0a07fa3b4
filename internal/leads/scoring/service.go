package scoring

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"leadpulse_backend/internal/leads/transport"
	"leadpulse_backend/internal/llm"
	"leadpulse_backend/platform/apperr"
	"leadpulse_backend/platform/config"
	"leadpulse_backend/platform/logger"
)

// maxConcurrentLeads bounds the per-batch fan-out so one large batch
// cannot open unbounded connections to the model backend.
const maxConcurrentLeads = 8

// Priority buckets derived from the total score.
const (
	BucketHot  = "hot"
	BucketWarm = "warm"
	BucketCold = "cold"
)

// Breakdown is the scoring result for one lead. All values are kept at
// full precision; rounding happens at the transport boundary.
type Breakdown struct {
	LeadID     string
	Total      float64
	Bucket     string
	Reasons    []string
	Recency    float64
	Engagement float64
	Source     float64
	Budget     float64
	Notes      float64
	Degraded   bool

	lastActivityMinutes int
}

// Service scores and ranks leads. It holds no per-request state; every
// invocation is independent and side-effect-free apart from model calls.
type Service struct {
	cfg           config.ScoringConfig
	notes         llm.TextAnalyzer
	heuristicOnly llm.TextAnalyzer
	log           *logger.Logger
}

// New creates the lead scoring service. A nil generator means the model
// backend is disabled and all scoring runs in pure-heuristic mode.
func New(cfg config.ScoringConfig, gen llm.Generator, log *logger.Logger) *Service {
	heuristic := llm.HeuristicFunc(AnalyzeNotes)

	var modelBacked llm.TextAnalyzer
	if gen != nil {
		modelBacked = llm.NewModelBacked(gen, leadNotesPrompt, parseLeadNotesResponse)
	}

	return &Service{
		cfg:           cfg,
		notes:         llm.WithFallback(modelBacked, heuristic, cfg.GetNotesBlendModelWeight(), "lead_notes", log),
		heuristicOnly: llm.WithFallback(nil, heuristic, cfg.GetNotesBlendModelWeight(), "lead_notes", log),
		log:           log,
	}
}

// ScoreLead computes the full breakdown for a single lead.
func (s *Service) ScoreLead(ctx context.Context, lead transport.LeadInput, useLLM bool) Breakdown {
	recency := RecencyScore(lead.LastActivityMinutesAgo)
	engagement := EngagementScore(lead.PastInteractions, lead.Status)
	source := SourceScore(lead.Source)
	budget := BudgetScore(lead.Budget)

	analyzer := s.notes
	if !useLLM {
		analyzer = s.heuristicOnly
	}
	notesSig, _ := analyzer.Analyze(ctx, lead.Notes)

	weights := s.cfg.GetLeadWeights()
	total := recency.Score*weights.Recency +
		engagement.Score*weights.Engagement +
		source.Score*weights.Source +
		budget.Score*weights.Budget +
		notesSig.Score*weights.Notes

	reasons := make([]string, 0, 4+len(notesSig.Evidence))
	reasons = append(reasons, recency.Reason, engagement.Reason, source.Reason, budget.Reason)
	reasons = append(reasons, notesSig.Evidence...)

	return Breakdown{
		LeadID:              lead.LeadID,
		Total:               total,
		Bucket:              s.bucketFor(total),
		Reasons:             reasons,
		Recency:             recency.Score,
		Engagement:          engagement.Score,
		Source:              source.Score,
		Budget:              budget.Score,
		Notes:               notesSig.Score,
		Degraded:            notesSig.Degraded,
		lastActivityMinutes: lead.LastActivityMinutesAgo,
	}
}

// PrioritizeLeads scores a batch concurrently, ranks it and truncates to
// maxResults. An empty batch yields an empty ranking, not an error.
func (s *Service) PrioritizeLeads(ctx context.Context, leads []transport.LeadInput, maxResults int, useLLM bool) ([]Breakdown, error) {
	if maxResults < 1 {
		return nil, apperr.Validation("max_results must be at least 1")
	}
	for _, lead := range leads {
		if err := validateLead(lead); err != nil {
			return nil, err
		}
	}
	if len(leads) == 0 {
		return []Breakdown{}, nil
	}

	results := make([]Breakdown, len(leads))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentLeads)

	for i, lead := range leads {
		group.Go(func() error {
			results[i] = s.ScoreLead(groupCtx, lead, useLLM)
			return nil
		})
	}
	// Scoring never fails per lead: the notes analyzer degrades instead.
	_ = group.Wait()

	rank(results)

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func validateLead(lead transport.LeadInput) error {
	if lead.LeadID == "" {
		return apperr.Validation("lead_id is required")
	}
	if lead.Budget < 0 {
		return apperr.Validation(fmt.Sprintf("lead %s: budget must not be negative", lead.LeadID))
	}
	if lead.LastActivityMinutesAgo < 0 {
		return apperr.Validation(fmt.Sprintf("lead %s: last_activity_minutes_ago must not be negative", lead.LeadID))
	}
	if lead.PastInteractions < 0 {
		return apperr.Validation(fmt.Sprintf("lead %s: past_interactions must not be negative", lead.LeadID))
	}
	return nil
}

// rank sorts by total descending. Ties break on more recent activity,
// then on lead ID, so re-running a batch yields an identical order.
func rank(results []Breakdown) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		if results[i].lastActivityMinutes != results[j].lastActivityMinutes {
			return results[i].lastActivityMinutes < results[j].lastActivityMinutes
		}
		return results[i].LeadID < results[j].LeadID
	})
}

func (s *Service) bucketFor(total float64) string {
	switch {
	case total >= s.cfg.GetHotThreshold():
		return BucketHot
	case total >= s.cfg.GetWarmThreshold():
		return BucketWarm
	default:
		return BucketCold
	}
}
