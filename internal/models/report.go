// Package models defines the domain models for the application.
package models

import "time"

// ReportType identifies which scoring engine produces a report.
type ReportType string

const (
	ReportTypeTrackingReadiness  ReportType = "TRACKING_READINESS"
	ReportTypeSpendBaseline      ReportType = "SPEND_BASELINE"
	ReportTypeCompetitorSnapshot ReportType = "COMPETITOR_SNAPSHOT"
)

// ReportStatus represents the lifecycle state of a report.
type ReportStatus string

const (
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusFailed     ReportStatus = "failed"
)

// Confidence indicates how much supporting evidence backed a score.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Report is a persisted scoring result. A ready report with a matching
// (ReportType, InputHash) pair is served from the store instead of being
// regenerated; failed reports never block a retry.
type Report struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	ReportType  ReportType   `json:"report_type"`
	InputHash   string       `json:"input_hash"`
	WebsiteID   *string      `json:"website_id,omitempty"` // Set for website-scoped report types
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Status      ReportStatus `json:"status"`

	// Scoring output, present once status is ready
	OverallScore *int       `json:"overall_score,omitempty"`
	Confidence   Confidence `json:"confidence,omitempty"`
	DataJSON     string     `json:"data_json,omitempty"` // Full engine output (sections, recommendations, metrics)
	HTMLContent  string     `json:"-"`                   // Rendered report, fetched separately

	CreditCost       int   `json:"credit_cost"` // 0 for failed and no-data reports
	GenerationTimeMs int64 `json:"generation_time_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the report has finished generating.
func (r *Report) IsTerminal() bool {
	return r.Status == ReportStatusReady || r.Status == ReportStatusFailed
}
