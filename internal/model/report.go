package model

import "time"

// LLMResult is the outcome of one generation call against an LLM backend.
type LLMResult struct {
	Content     string         `json:"content"`
	Suggestions []string       `json:"suggestions"`
	TokensUsed  int            `json:"tokens_used"`
	Model       string         `json:"model"`
	Provider    string         `json:"provider"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ComparisonReport is the persisted output of one comparison run.
//
// The report exclusively owns its embedded profile snapshots: user and
// competitor profiles are copied in by value at assembly time and are never
// links to mutable records. A report is immutable after creation except for
// ReportID, which the store assigns at save time when absent.
type ComparisonReport struct {
	ID       string `json:"id"`
	ReportID string `json:"report_id"`

	UserBusiness         BusinessProfile   `json:"user_business"`
	CompetitorBusinesses []BusinessProfile `json:"competitor_businesses"`
	Metrics              ComparisonMetrics `json:"metrics"`

	AISummary     string   `json:"ai_comparison_summary"`
	AISuggestions []string `json:"ai_improvement_suggestions"`

	Metadata  ReportMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// ReportMetadata records which backend produced the analysis and what it cost.
type ReportMetadata struct {
	LLMProvider string         `json:"llm_provider"`
	LLMModel    string         `json:"llm_model"`
	TokensUsed  int            `json:"tokens_used"`
	Style       ReportStyle    `json:"report_style"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// CompetitorCount returns the number of competitors embedded in the report.
func (r *ComparisonReport) CompetitorCount() int {
	return len(r.CompetitorBusinesses)
}
