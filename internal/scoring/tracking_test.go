package scoring

import (
	"strings"
	"testing"

	"github.com/synterhq/synter-api/internal/models"
)

func snapshotWith(technologies map[string][]string, pixels []string) *models.WebsiteSnapshot {
	return &models.WebsiteSnapshot{
		URL:            "https://example.com",
		Title:          "Example",
		Technologies:   technologies,
		TrackingPixels: pixels,
	}
}

func TestTrackingReadiness_EmptySnapshot(t *testing.T) {
	result := TrackingReadiness(snapshotWith(nil, nil))

	if result.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0 for empty snapshot", result.OverallScore)
	}
	if result.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %q, want LOW", result.Confidence)
	}
	if len(result.Sections) != 3 {
		t.Fatalf("Sections = %d, want 3", len(result.Sections))
	}
	// All three improvement recommendations fire on a bare site
	if len(result.Recommendations) != 3 {
		t.Errorf("Recommendations = %d, want 3", len(result.Recommendations))
	}
}

func TestTrackingReadiness_NilSnapshot(t *testing.T) {
	result := TrackingReadiness(nil)

	if result.OverallScore != 0 || result.Confidence != models.ConfidenceLow {
		t.Errorf("nil snapshot should produce a zero-score LOW result, got %d/%q",
			result.OverallScore, result.Confidence)
	}
}

func TestTrackingReadiness_WellInstrumentedSite(t *testing.T) {
	snap := snapshotWith(
		map[string][]string{
			"Analytics":    {"Google Analytics 4", "Hotjar"},
			"Advertising":  {"Google Ads Remarketing"},
			"Tag Managers": {"Google Tag Manager"},
			"Ecommerce":    {"Shopify"},
		},
		[]string{"Google Analytics Pixel", "Facebook Pixel", "Google Ads Conversion"},
	)

	result := TrackingReadiness(snap)

	// Analytics: 2 tools x15 + 1 analytics pixel x10 = 40 (capped)
	if result.Sections[0].Score != 40 {
		t.Errorf("analytics score = %d, want 40", result.Sections[0].Score)
	}
	// Conversion: Facebook Pixel + Google Ads pixel = 24, advertising category +8 = 32
	if result.Sections[1].Score != 32 {
		t.Errorf("conversion score = %d, want 32", result.Sections[1].Score)
	}
	// Technical: GTM +10, Shopify +7 = 17
	if result.Sections[2].Score != 17 {
		t.Errorf("technical score = %d, want 17", result.Sections[2].Score)
	}
	if want := 40 + 32 + 17; result.OverallScore != want {
		t.Errorf("OverallScore = %d, want %d", result.OverallScore, want)
	}
	if result.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %q, want HIGH (4 categories, 3 pixels)", result.Confidence)
	}
}

func TestTrackingReadiness_MediumConfidence(t *testing.T) {
	snap := snapshotWith(
		map[string][]string{
			"Analytics": {"Google Analytics"},
			"CMS":       {"WordPress"},
		},
		nil,
	)

	result := TrackingReadiness(snap)
	if result.Confidence != models.ConfidenceMedium {
		t.Errorf("Confidence = %q, want MEDIUM (2 categories)", result.Confidence)
	}
}

func TestTrackingReadiness_SubScoreCaps(t *testing.T) {
	// Pile on evidence and verify every section stays within its cap
	snap := snapshotWith(
		map[string][]string{
			"Analytics":    {"Google Analytics", "Adobe Analytics", "Mixpanel", "Amplitude", "Hotjar"},
			"Advertising":  {"AdRoll"},
			"Marketing":    {"HubSpot"},
			"Conversion":   {"Optimizely"},
			"Tag Managers": {"Google Tag Manager", "Tealium", "Adobe Launch"},
			"Consent":      {"OneTrust", "Cookiebot"},
			"Ecommerce":    {"Shopify", "Magento"},
		},
		[]string{
			"Facebook Pixel", "Google Ads", "LinkedIn Insight", "Twitter Pixel", "TikTok Pixel",
			"Google Analytics", "Segment Analytics",
		},
	)

	result := TrackingReadiness(snap)

	caps := []int{analyticsMax, conversionMax, technicalMax}
	for i, section := range result.Sections {
		if section.Score < 0 || section.Score > caps[i] {
			t.Errorf("section %q score %d outside [0, %d]", section.Title, section.Score, caps[i])
		}
	}
	if result.OverallScore > 100 {
		t.Errorf("OverallScore = %d, want <= 100", result.OverallScore)
	}
	if result.OverallScore != 100 {
		t.Errorf("OverallScore = %d, want 100 with maxed evidence", result.OverallScore)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("a fully instrumented site should have no recommendations, got %d", len(result.Recommendations))
	}
}

func TestTrackingReadiness_Monotonic(t *testing.T) {
	base := TrackingReadiness(snapshotWith(
		map[string][]string{"Analytics": {"Google Analytics"}},
		nil,
	))
	more := TrackingReadiness(snapshotWith(
		map[string][]string{"Analytics": {"Google Analytics", "Mixpanel"}},
		nil,
	))

	if more.Sections[0].Score < base.Sections[0].Score {
		t.Errorf("adding analytics evidence decreased the sub-score: %d -> %d",
			base.Sections[0].Score, more.Sections[0].Score)
	}
}

func TestTrackingReadiness_SummaryBands(t *testing.T) {
	tests := []struct {
		score    int
		contains string
	}{
		{85, "Excellent"},
		{65, "Good"},
		{45, "Basic"},
		{10, "Limited"},
	}

	for _, tt := range tests {
		summary := trackingSummary(tt.score)
		if !strings.Contains(summary, tt.contains) {
			t.Errorf("trackingSummary(%d) = %q, want it to mention %q", tt.score, summary, tt.contains)
		}
	}
}
