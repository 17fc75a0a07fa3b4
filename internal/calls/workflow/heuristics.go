package workflow

import (
	"fmt"
	"strings"

	"leadpulse_backend/internal/llm"
)

// Deterministic per-dimension transcript scorers. Each one is total and
// keyword driven, so the workflow always has a result to fall back on
// when the model backend is unavailable.

var greetingPhrases = []string{
	"good morning", "good afternoon", "good evening",
	"hello", "namaste", "thank you for taking",
	"how are you", "my name is", "this is",
}

var empathyPhrases = []string{
	"i understand", "i hear you", "that makes sense",
	"no problem", "happy to help", "i appreciate",
}

var requirementPhrases = []string{
	"budget", "looking for", "requirement", "prefer",
	"how many", "what kind", "which area", "when do you",
}

var nextStepPhrases = []string{
	"schedule", "site visit", "follow up", "next step",
	"book", "appointment", "confirm", "i will send",
	"let's meet", "share the details",
}

var pressurePhrases = []string{
	"last chance", "only today", "limited time", "must book now",
	"guaranteed returns", "guaranteed appreciation", "no risk",
	"i promise", "prices will double",
}

// RapportHeuristic rewards greetings and empathy markers.
func RapportHeuristic(transcript string) llm.Signal {
	text := strings.ToLower(transcript)
	score := 0.4
	evidence := []string{}

	if matched := matchPhrases(text, greetingPhrases); len(matched) > 0 {
		score += 0.3
		evidence = append(evidence, fmt.Sprintf("Greeting detected: %s", joinFirst(matched, 2)))
	}
	if matched := matchPhrases(text, empathyPhrases); len(matched) > 0 {
		score += 0.15 * float64(capInt(len(matched), 2))
		evidence = append(evidence, fmt.Sprintf("Empathy markers: %s", joinFirst(matched, 2)))
	}
	if len(evidence) == 0 {
		evidence = append(evidence, "No rapport signals detected")
	}

	return llm.Signal{Score: llm.Clamp01(score), Evidence: evidence}
}

// NeedDiscoveryHeuristic rewards question density and requirement probing.
func NeedDiscoveryHeuristic(transcript string) llm.Signal {
	text := strings.ToLower(transcript)
	questions := strings.Count(text, "?")
	score := 0.3 + 0.1*float64(capInt(questions, 5))
	evidence := []string{fmt.Sprintf("%d questions asked", questions)}

	if matched := matchPhrases(text, requirementPhrases); len(matched) > 0 {
		score += 0.1
		evidence = append(evidence, fmt.Sprintf("Requirement probing: %s", joinFirst(matched, 2)))
	}

	return llm.Signal{Score: llm.Clamp01(score), Evidence: evidence}
}

// ClosingHeuristic rewards concrete next-step language.
func ClosingHeuristic(transcript string) llm.Signal {
	text := strings.ToLower(transcript)
	matched := matchPhrases(text, nextStepPhrases)
	score := 0.3 + 0.35*float64(capInt(len(matched), 2))

	evidence := []string{"No closing attempt detected"}
	if len(matched) > 0 {
		evidence = []string{fmt.Sprintf("Next step proposed: %s", joinFirst(matched, 2))}
	}

	return llm.Signal{Score: llm.Clamp01(score), Evidence: evidence}
}

// ComplianceRiskHeuristic scores risk, not quality: higher means riskier.
func ComplianceRiskHeuristic(transcript string) llm.Signal {
	text := strings.ToLower(transcript)
	matched := matchPhrases(text, pressurePhrases)
	score := 0.1 + 0.3*float64(capInt(len(matched), 3))

	evidence := []string{"No pressure or overpromising language detected"}
	if len(matched) > 0 {
		evidence = []string{fmt.Sprintf("Pressure language: %s", joinFirst(matched, 3))}
	}

	return llm.Signal{Score: llm.Clamp01(score), Evidence: evidence}
}

func matchPhrases(text string, phrases []string) []string {
	matched := []string{}
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

func capInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}
