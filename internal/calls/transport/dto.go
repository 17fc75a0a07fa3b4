// Package transport defines the wire types for the call evaluation API.
package transport

// CallEvalRequest is the POST /api/v1/call-eval payload.
type CallEvalRequest struct {
	CallID          string `json:"call_id" validate:"required"`
	LeadID          string `json:"lead_id" validate:"omitempty,max=128"`
	Transcript      string `json:"transcript" validate:"required,min=10"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
}

// DimensionScore is one analyzed dimension of the call.
type DimensionScore struct {
	Score    float64  `json:"score"`
	Evidence []string `json:"evidence"`
	Degraded bool     `json:"degraded"`
}

// CallLabels groups the four dimension scores. ComplianceRisk is a risk
// score: higher is worse.
type CallLabels struct {
	RapportBuilding DimensionScore `json:"rapport_building"`
	NeedDiscovery   DimensionScore `json:"need_discovery"`
	ClosingAttempt  DimensionScore `json:"closing_attempt"`
	ComplianceRisk  DimensionScore `json:"compliance_risk"`
}

// ModelMetadata describes how the evaluation was produced.
type ModelMetadata struct {
	ModelName       string   `json:"model_name"`
	LatencyMs       int64    `json:"latency_ms"`
	DegradedStages  []string `json:"degraded_stages"`
	SummaryDegraded bool     `json:"summary_degraded"`
}

// CallEvalResponse is the evaluation verdict returned to the client.
type CallEvalResponse struct {
	CallID        string        `json:"call_id"`
	QualityScore  float64       `json:"quality_score"`
	IsGoodCall    bool          `json:"is_good_call"`
	Labels        CallLabels    `json:"labels"`
	Summary       string        `json:"summary"`
	KeyPoints     []string      `json:"key_points"`
	NextActions   []string      `json:"next_actions"`
	ModelMetadata ModelMetadata `json:"model_metadata"`
}
