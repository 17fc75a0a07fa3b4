// Package transport defines the request/response DTOs for the lead
// priority endpoint.
package transport

// LeadInput is a single lead to be scored. Inputs are immutable; the
// scorer never mutates them.
type LeadInput struct {
	LeadID                 string  `json:"lead_id" validate:"required"`
	Source                 string  `json:"source" validate:"required"`
	Budget                 float64 `json:"budget" validate:"gte=0"`
	City                   string  `json:"city"`
	PropertyType           string  `json:"property_type"`
	LastActivityMinutesAgo int     `json:"last_activity_minutes_ago" validate:"gte=0"`
	PastInteractions       int     `json:"past_interactions" validate:"gte=0"`
	Notes                  string  `json:"notes"`
	Status                 string  `json:"status" validate:"required,oneof=new contacted follow_up qualified"`
}

// PriorityRequest is the request body for POST /lead-priority.
type PriorityRequest struct {
	Leads      []LeadInput `json:"leads" validate:"dive"`
	MaxResults int         `json:"max_results" validate:"min=1,max=100"`
}

// LeadPriorityScore is the full per-lead breakdown, exposed for
// auditability rather than just the bucket.
type LeadPriorityScore struct {
	LeadID         string   `json:"lead_id"`
	PriorityScore  float64  `json:"priority_score"`
	PriorityBucket string   `json:"priority_bucket"`
	Reasons        []string `json:"reasons"`

	RecencyScore    float64 `json:"recency_score"`
	EngagementScore float64 `json:"engagement_score"`
	SourceScore     float64 `json:"source_score"`
	BudgetScore     float64 `json:"budget_score"`
	NotesScore      float64 `json:"notes_score"`
}

// ModelMetadata describes how the batch was scored.
type ModelMetadata struct {
	ModelUsed      string             `json:"model_used"`
	LLMEnabled     bool               `json:"llm_enabled"`
	DegradedLeads  int                `json:"degraded_leads,omitempty"`
	ScoringWeights map[string]float64 `json:"scoring_weights"`
	Thresholds     map[string]float64 `json:"thresholds"`
}

// PriorityResponse is the response body for POST /lead-priority.
type PriorityResponse struct {
	RankedLeads    []LeadPriorityScore `json:"ranked_leads"`
	TotalProcessed int                 `json:"total_processed"`
	ModelMetadata  ModelMetadata       `json:"model_metadata"`
}
