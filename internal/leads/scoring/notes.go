package scoring

import (
	"strings"

	"leadpulse_backend/internal/llm"
)

// Keyword groups for the deterministic notes analyzer. Matching is
// case-insensitive substring search over the raw notes text.
var (
	urgencyKeywords = []string{
		"urgent", "asap", "immediately", "priority", "today", "tomorrow",
		"this week", "this weekend", "ready to book", "ready to buy",
		"booking amount ready", "cash ready", "!!", "vip",
	}

	timelineKeywords = []string{
		"march", "april", "diwali", "pongal", "next month", "by end of",
		"within", "before", "possession", "shifting", "relocating",
	}

	positiveKeywords = []string{
		"interested", "likes", "loved", "genuine", "serious", "confirmed",
		"scheduled", "ready", "approved", "flexible", "cash buyer",
	}

	negativeKeywords = []string{
		"not serious", "fake", "spam", "wrong number", "window shopping",
		"not picking", "not interested", "unrealistic", "just browsing",
	}
)

// AnalyzeNotes is the deterministic notes analyzer: pure, total, no
// failure mode. It is both the fallback for the model-backed analyzer
// and the baseline signal blended with it.
func AnalyzeNotes(notes string) llm.Signal {
	if strings.TrimSpace(notes) == "" {
		return llm.Signal{Score: 0.5, Evidence: []string{"No notes available"}}
	}

	notesLower := strings.ToLower(notes)
	score := 0.5
	var evidence []string

	if matches := matchKeywords(notesLower, urgencyKeywords); len(matches) > 0 {
		score += 0.2
		evidence = append(evidence, "Urgency signals detected: "+joinFirst(matches, 2))
	}

	if matches := matchKeywords(notesLower, timelineKeywords); len(matches) > 0 {
		score += 0.15
		evidence = append(evidence, "Timeline mentioned: "+matches[0])
	}

	if matches := matchKeywords(notesLower, positiveKeywords); len(matches) > 0 {
		score += 0.15
		evidence = append(evidence, "Positive signals: "+joinFirst(matches, 2))
	}

	if matches := matchKeywords(notesLower, negativeKeywords); len(matches) > 0 {
		score -= 0.3
		evidence = append(evidence, "Negative signals: "+joinFirst(matches, 2))
	}

	if len(evidence) == 0 {
		evidence = append(evidence, "Neutral notes content")
	}

	return llm.Signal{Score: llm.Clamp01(score), Evidence: evidence}
}

func matchKeywords(notesLower string, keywords []string) []string {
	var matches []string
	for _, kw := range keywords {
		if strings.Contains(notesLower, kw) {
			matches = append(matches, kw)
		}
	}
	return matches
}

func joinFirst(values []string, n int) string {
	if len(values) > n {
		values = values[:n]
	}
	return strings.Join(values, ", ")
}
