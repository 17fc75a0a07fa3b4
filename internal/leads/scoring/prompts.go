package scoring

import (
	"fmt"
	"strings"

	"leadpulse_backend/internal/llm"
)

const leadNotesPromptTemplate = `You are a real estate sales analyst. Analyze the following lead notes and provide a score from 0.0 to 1.0 indicating how likely this lead is to convert, along with specific reasons.

Lead Notes:
%s

Consider the following factors:
1. Urgency signals (words like "urgent", "asap", "immediately", timeline mentions)
2. Buyer intent (serious vs casual, ready to buy vs just browsing)
3. Financial readiness (budget flexibility, loan approval, cash buyer)
4. Engagement level (scheduled visits, confirmation, follow-ups)
5. Red flags (not picking calls, unrealistic expectations, wrong contact)

Respond in this exact JSON format:
{
    "score": <float between 0.0 and 1.0>,
    "reasons": ["reason1", "reason2", "reason3"],
    "red_flags": ["flag1", "flag2"] or []
}`

func leadNotesPrompt(notes string) string {
	return fmt.Sprintf(leadNotesPromptTemplate, notes)
}

type leadNotesResponse struct {
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
	RedFlags []string `json:"red_flags"`
}

func parseLeadNotesResponse(raw string) (llm.Signal, error) {
	var parsed leadNotesResponse
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		return llm.Signal{}, err
	}

	evidence := append([]string{}, parsed.Reasons...)
	if len(parsed.RedFlags) > 0 {
		evidence = append(evidence, "Red flags: "+strings.Join(parsed.RedFlags, ", "))
	}

	return llm.Signal{Score: parsed.Score, Evidence: evidence}, nil
}
