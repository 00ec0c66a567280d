package models

import "time"

// WebsiteSnapshot is the persisted result of one analyzer run against a
// URL. Snapshots are keyed by the stable website id so repeat reports
// within the reuse window skip re-scraping.
type WebsiteSnapshot struct {
	ID        string `json:"id"`
	WebsiteID string `json:"website_id"`
	URL       string `json:"url"`
	Title     string `json:"title"`

	Technologies      map[string][]string `json:"technologies"` // category -> tools
	TrackingPixels    []string            `json:"tracking_pixels"`
	Industry          string              `json:"industry,omitempty"`
	BusinessModel     string              `json:"business_model,omitempty"`
	KeyTopics         []string            `json:"key_topics,omitempty"`
	ValuePropositions []string            `json:"value_propositions,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Insight is a generated audience persona or channel suggestion attached
// to a tracking readiness report.
type Insight struct {
	Kind        string `json:"kind"` // persona, channel
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"` // llm, template
}
