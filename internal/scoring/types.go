// Package scoring contains the report scoring engines. Every engine is a
// pure function from structured external data to a bounded score,
// confidence level, and ranked recommendations. Engines tolerate partial
// or missing data: sub-scores fall back to their base values and the
// confidence drops instead of the engine failing.
package scoring

import "github.com/synterhq/synter-api/internal/models"

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// SectionStatus is the coarse health of one scored section.
type SectionStatus string

const (
	StatusExcellent SectionStatus = "excellent"
	StatusGood      SectionStatus = "good"
	StatusPoor      SectionStatus = "poor"
)

// Section is one independently capped sub-score of a report.
type Section struct {
	Title    string        `json:"title"`
	Score    int           `json:"score"`
	MaxScore int           `json:"max_score"`
	Status   SectionStatus `json:"status"`
	Details  string        `json:"details"`
	Items    []string      `json:"items,omitempty"`
}

// Recommendation is one actionable suggestion derived from the computed
// metrics. Engines emit at most five, ordered high to low priority.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// Result is the shared shape of every engine's output.
type Result struct {
	OverallScore    int               `json:"overall_score"`
	Confidence      models.Confidence `json:"confidence"`
	Summary         string            `json:"summary"`
	Sections        []Section         `json:"sections,omitempty"`
	Recommendations []Recommendation  `json:"recommendations,omitempty"`

	// NoData marks a report produced from a total absence of usable
	// input. Such reports score 0 and cost no credits.
	NoData bool `json:"no_data,omitempty"`
}

// maxRecommendations bounds every engine's recommendation list.
const maxRecommendations = 5

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateRecommendations(recs []Recommendation) []Recommendation {
	if len(recs) > maxRecommendations {
		return recs[:maxRecommendations]
	}
	return recs
}
