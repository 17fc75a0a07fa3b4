package workflow

import (
	"context"
	"fmt"
	"strings"

	"leadpulse_backend/internal/llm"
)

// dimensionLabels maps stage names to the wording used in summaries.
var dimensionLabels = map[string]string{
	StageRapport:       "rapport building",
	StageNeedDiscovery: "need discovery",
	StageClosing:       "closing",
	StageCompliance:    "compliance",
}

const summaryPromptTemplate = `You are summarizing a sales call evaluation for a team lead.

Dimension results:
%s
Overall quality score: %.2f (threshold for a good call: reaching it means the call went well).

Respond with ONLY a JSON object in this exact shape:
{"summary": "<2-3 sentence narrative>", "key_points": ["<point>", ...], "next_actions": ["<action>", ...]}

Keep key_points to at most 4 items and next_actions to at most 3 concrete follow-ups.`

type summaryResponse struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	NextActions []string `json:"next_actions"`
}

// summarizer narrates a verdict, model-first with a templated fallback.
type summarizer struct {
	gen llm.Generator
}

func newSummarizer(gen llm.Generator) *summarizer {
	return &summarizer{gen: gen}
}

// Summarize returns the narrative summary, key points and next actions.
// The last return reports whether the templated fallback was used.
func (s *summarizer) Summarize(ctx context.Context, v Verdict) (string, []string, []string, bool) {
	if s.gen != nil {
		if resp, err := s.generate(ctx, v); err == nil {
			return resp.Summary, resp.KeyPoints, resp.NextActions, false
		}
	}
	summary, keyPoints, nextActions := templatedSummary(v)
	return summary, keyPoints, nextActions, true
}

func (s *summarizer) generate(ctx context.Context, v Verdict) (summaryResponse, error) {
	var lines strings.Builder
	for _, name := range []string{StageRapport, StageNeedDiscovery, StageClosing, StageCompliance} {
		r := v.Stages[name]
		fmt.Fprintf(&lines, "- %s: %.2f (%s)\n", dimensionLabels[name], r.Score, strings.Join(r.Evidence, "; "))
	}

	raw, err := s.gen.Generate(ctx, fmt.Sprintf(summaryPromptTemplate, lines.String(), v.QualityScore))
	if err != nil {
		return summaryResponse{}, err
	}

	var resp summaryResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return summaryResponse{}, err
	}
	if strings.TrimSpace(resp.Summary) == "" {
		return summaryResponse{}, llm.ErrMalformed
	}
	if resp.KeyPoints == nil {
		resp.KeyPoints = []string{}
	}
	if resp.NextActions == nil {
		resp.NextActions = []string{}
	}
	return resp, nil
}

// templatedSummary builds a deterministic narrative from the dimension
// scores. It carries the verdict even when the model backend is down.
func templatedSummary(v Verdict) (string, []string, []string) {
	var strengths, weaknesses []string
	for _, name := range []string{StageRapport, StageNeedDiscovery, StageClosing} {
		label := dimensionLabels[name]
		if v.Stages[name].Score >= neutralScore {
			strengths = append(strengths, label)
		} else {
			weaknesses = append(weaknesses, label)
		}
	}

	risk := v.Stages[StageCompliance].Score

	var b strings.Builder
	if v.IsGoodCall {
		b.WriteString("Overall a good call. ")
	} else {
		b.WriteString("The call fell short of the quality bar. ")
	}
	if len(strengths) > 0 {
		fmt.Fprintf(&b, "Strong on %s. ", strings.Join(strengths, " and "))
	}
	if len(weaknesses) > 0 {
		fmt.Fprintf(&b, "Needs work on %s. ", strings.Join(weaknesses, " and "))
	}
	if risk >= neutralScore {
		b.WriteString("Compliance risk flagged. ")
	}
	if len(v.DegradedStages) > 0 {
		fmt.Fprintf(&b, "Evaluated in degraded mode (%s scored heuristically).",
			strings.Join(v.DegradedStages, ", "))
	}
	summary := strings.TrimSpace(b.String())

	keyPoints := collectKeyPoints(v)
	nextActions := deriveNextActions(v, risk)

	return summary, keyPoints, nextActions
}

func collectKeyPoints(v Verdict) []string {
	points := []string{}
	for _, name := range []string{StageRapport, StageNeedDiscovery, StageClosing, StageCompliance} {
		r := v.Stages[name]
		if len(r.Evidence) > 0 {
			points = append(points, r.Evidence[0])
		}
	}
	if len(points) > 4 {
		points = points[:4]
	}
	return points
}

func deriveNextActions(v Verdict, risk float64) []string {
	actions := []string{}
	if v.Stages[StageNeedDiscovery].Score < neutralScore {
		actions = append(actions, "Follow up with open questions to capture the customer's requirements")
	}
	if v.Stages[StageClosing].Score < neutralScore {
		actions = append(actions, "Agree a concrete next step with the customer")
	}
	if risk >= neutralScore {
		actions = append(actions, "Review the call with a supervisor for compliance")
	}
	if len(actions) == 0 {
		actions = append(actions, "Send a recap message and confirm the agreed next step")
	}
	return actions
}
