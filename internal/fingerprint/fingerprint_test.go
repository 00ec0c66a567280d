package fingerprint

import (
	"strings"
	"testing"
)

// ========================================
// NormalizeURL Tests
// ========================================

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare domain", "example.com", "https://example.com"},
		{"uppercase host", "HTTPS://EXAMPLE.COM/Path", "https://example.com/Path"},
		{"trailing slash", "https://example.com/", "https://example.com"},
		{"trailing slash on path", "https://example.com/pricing/", "https://example.com/pricing"},
		{"fragment stripped", "https://example.com/page#section", "https://example.com/page"},
		{"http preserved", "http://example.com", "http://example.com"},
		{"whitespace trimmed", "  example.com  ", "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "https://"} {
		if _, err := NormalizeURL(input); err == nil {
			t.Errorf("NormalizeURL(%q) should fail", input)
		}
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.example.com/pricing", "example.com"},
		{"example.com", "example.com"},
		{"WWW.EXAMPLE.COM", "example.com"},
		{"http://example.com:8080/path", "example.com"},
	}

	for _, tt := range tests {
		got, err := NormalizeDomain(tt.input)
		if err != nil {
			t.Fatalf("NormalizeDomain(%q) error = %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

// ========================================
// Digest Tests
// ========================================

func TestTrackingReadiness_Deterministic(t *testing.T) {
	a, err := TrackingReadiness("https://example.com/")
	if err != nil {
		t.Fatalf("TrackingReadiness() error = %v", err)
	}
	b, err := TrackingReadiness("EXAMPLE.COM")
	if err != nil {
		t.Fatalf("TrackingReadiness() error = %v", err)
	}

	if a != b {
		t.Errorf("equivalent urls should hash identically: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestTrackingReadiness_DistinctURLs(t *testing.T) {
	a, _ := TrackingReadiness("https://example.com")
	b, _ := TrackingReadiness("https://example.org")

	if a == b {
		t.Error("different urls should hash differently")
	}
}

func TestSpendBaseline_OrderIndependent(t *testing.T) {
	a := SpendBaseline([]string{"acct_2", "acct_1", "acct_3"}, 30)
	b := SpendBaseline([]string{"acct_3", "acct_1", "acct_2"}, 30)

	if a != b {
		t.Error("account order must not affect the digest")
	}
}

func TestSpendBaseline_InputSensitivity(t *testing.T) {
	base := SpendBaseline([]string{"acct_1"}, 30)

	if SpendBaseline([]string{"acct_1"}, 60) == base {
		t.Error("different day counts should hash differently")
	}
	if SpendBaseline([]string{"acct_2"}, 30) == base {
		t.Error("different accounts should hash differently")
	}
}

func TestSpendBaseline_DoesNotMutateInput(t *testing.T) {
	ids := []string{"b", "a"}
	SpendBaseline(ids, 30)

	if ids[0] != "b" || ids[1] != "a" {
		t.Error("input slice should not be reordered")
	}
}

func TestCompetitorSnapshot_StripsSchemeAndPath(t *testing.T) {
	a, err := CompetitorSnapshot("https://www.example.com/about")
	if err != nil {
		t.Fatalf("CompetitorSnapshot() error = %v", err)
	}
	b, err := CompetitorSnapshot("example.com")
	if err != nil {
		t.Fatalf("CompetitorSnapshot() error = %v", err)
	}

	if a != b {
		t.Error("scheme/path/www variants of the same domain should hash identically")
	}
}

func TestDigests_DifferAcrossReportTypes(t *testing.T) {
	tr, _ := TrackingReadiness("https://example.com")
	cs, _ := CompetitorSnapshot("example.com")

	if tr == cs {
		t.Error("the report type must be part of the digest input")
	}
}

// ========================================
// WebsiteID Tests
// ========================================

func TestWebsiteID(t *testing.T) {
	a, err := WebsiteID("https://example.com/")
	if err != nil {
		t.Fatalf("WebsiteID() error = %v", err)
	}
	b, _ := WebsiteID("example.com")

	if a != b {
		t.Errorf("equivalent urls should produce the same website id: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "web_") {
		t.Errorf("WebsiteID() = %q, want web_ prefix", a)
	}

	other, _ := WebsiteID("https://example.org")
	if other == a {
		t.Error("different sites should produce different ids")
	}
}

func TestWebsiteID_InvalidURL(t *testing.T) {
	if _, err := WebsiteID(""); err == nil {
		t.Error("WebsiteID(\"\") should fail")
	}
}
