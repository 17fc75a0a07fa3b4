// Package scoring computes lead priority scores. Four deterministic
// sub-scores (recency, engagement, source, budget) are combined with a
// hybrid notes signal into a weighted total and a priority bucket.
package scoring

import (
	"fmt"
	"strings"
)

// Factor is one deterministic sub-score with its human-readable reason.
type Factor struct {
	Score  float64
	Reason string
}

// sourceScores ranks lead acquisition channels by historical close rate.
var sourceScores = map[string]float64{
	"referral":     1.0,
	"walk-in":      0.9,
	"portal":       0.75,
	"magicbricks":  0.75,
	"99acres":      0.75,
	"housing.com":  0.7,
	"website":      0.6,
	"social_media": 0.4,
}

// defaultSourceScore applies to unrecognized sources. Falling back to a
// mid value is a policy decision, not an error: new channels appear in
// the feed before anyone updates the table.
const defaultSourceScore = 0.5

// statusModifiers boost engagement for leads that progressed past "new".
var statusModifiers = map[string]float64{
	"new":       0.0,
	"contacted": 0.10,
	"follow_up": 0.15,
	"qualified": 0.20,
}

// RecencyScore is a monotone non-increasing step function of minutes
// since last activity.
func RecencyScore(minutesAgo int) Factor {
	switch {
	case minutesAgo < 30:
		return Factor{1.0, "Very recent activity (< 30 mins)"}
	case minutesAgo < 60:
		return Factor{0.85, "Recent activity (< 1 hour)"}
	case minutesAgo < 240:
		return Factor{0.70, "Activity within 4 hours"}
	case minutesAgo < 1440:
		return Factor{0.50, "Activity within 24 hours"}
	case minutesAgo < 10080:
		return Factor{0.25, "Activity within 7 days"}
	default:
		return Factor{0.10, "Old lead (> 7 days since activity)"}
	}
}

// EngagementScore saturates at ten interactions and adds a modifier for
// leads that already progressed through the funnel.
func EngagementScore(pastInteractions int, status string) Factor {
	interactionScore := float64(pastInteractions) / 10
	if interactionScore > 1 {
		interactionScore = 1
	}

	score := interactionScore + statusModifiers[status]
	if score > 1 {
		score = 1
	}

	var reason string
	switch {
	case pastInteractions >= 5:
		reason = fmt.Sprintf("Highly engaged (%d interactions)", pastInteractions)
	case pastInteractions >= 2:
		reason = fmt.Sprintf("Moderate engagement (%d interactions)", pastInteractions)
	default:
		reason = fmt.Sprintf("Low engagement (%d interactions)", pastInteractions)
	}

	return Factor{score, reason}
}

// SourceScore looks up channel quality. Unknown sources never fail.
func SourceScore(source string) Factor {
	score, ok := sourceScores[normalizeSource(source)]
	if !ok {
		score = defaultSourceScore
	}

	var reason string
	switch {
	case score >= 0.9:
		reason = fmt.Sprintf("High-quality source (%s)", source)
	case score >= 0.7:
		reason = fmt.Sprintf("Good source (%s)", source)
	default:
		reason = fmt.Sprintf("Standard source (%s)", source)
	}

	return Factor{score, reason}
}

func normalizeSource(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}

// BudgetScore is a monotone non-decreasing step function of budget in INR.
// Above 5 crore it saturates at 1.0, below 50 lakh it floors at 0.40.
func BudgetScore(budget float64) Factor {
	budgetCr := budget / 10000000

	switch {
	case budgetCr >= 5:
		return Factor{1.0, fmt.Sprintf("Premium budget (₹%.1fCr)", budgetCr)}
	case budgetCr >= 2:
		return Factor{0.85, fmt.Sprintf("High budget (₹%.1fCr)", budgetCr)}
	case budgetCr >= 1:
		return Factor{0.70, fmt.Sprintf("Good budget (₹%.1fCr)", budgetCr)}
	case budgetCr >= 0.5:
		return Factor{0.55, fmt.Sprintf("Moderate budget (₹%.0fL)", budget/100000)}
	default:
		return Factor{0.40, fmt.Sprintf("Lower budget segment (₹%.0fL)", budget/100000)}
	}
}
