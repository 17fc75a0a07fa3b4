package workflow

import (
	"fmt"
	"strings"

	"leadpulse_backend/internal/llm"
)

// stageInstructions tells the model what each dimension means. Compliance
// is inverted on purpose: the model scores risk, aggregation flips it.
var stageInstructions = map[string]string{
	StageRapport: "Rate how well the agent builds rapport: greeting, tone, " +
		"empathy and personal connection with the customer.",
	StageNeedDiscovery: "Rate how well the agent discovers the customer's needs: " +
		"open questions about budget, location, timeline and preferences.",
	StageClosing: "Rate how well the agent attempts to close: proposing a concrete " +
		"next step such as a site visit, follow-up call or document exchange.",
	StageCompliance: "Rate the compliance RISK of the call: pressure tactics, " +
		"guaranteed-return claims or overpromising. 0 means no risk, 1 means severe risk.",
}

const stagePromptTemplate = `You are evaluating one dimension of a sales call transcript.

%s

Respond with ONLY a JSON object in this exact shape:
{"score": <number between 0 and 1>, "evidence": ["<short quote or observation>", ...]}

Keep evidence to at most 3 short items. Do not add any text outside the JSON.

Transcript:
"""
%s
"""`

func stagePrompt(stage string) func(transcript string) string {
	instruction := stageInstructions[stage]
	return func(transcript string) string {
		return fmt.Sprintf(stagePromptTemplate, instruction, transcript)
	}
}

type stageResponse struct {
	Score    float64  `json:"score"`
	Evidence []string `json:"evidence"`
}

func parseStageResponse(raw string) (llm.Signal, error) {
	var resp stageResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return llm.Signal{}, err
	}

	evidence := make([]string, 0, len(resp.Evidence))
	for _, item := range resp.Evidence {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			evidence = append(evidence, trimmed)
		}
	}

	return llm.Signal{Score: resp.Score, Evidence: evidence}, nil
}
