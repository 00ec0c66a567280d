package scoring

import (
	"fmt"
	"strings"

	"github.com/synterhq/synter-api/internal/models"
)

// Known tool names matched case-insensitively against snapshot data.
var (
	analyticsTools       = []string{"Google Analytics", "Adobe Analytics", "Mixpanel", "Amplitude", "Hotjar"}
	conversionPixels     = []string{"Facebook Pixel", "Google Ads", "LinkedIn Insight", "Twitter Pixel", "TikTok Pixel"}
	tagManagers          = []string{"Google Tag Manager", "Tealium", "Adobe Launch"}
	consentTools         = []string{"OneTrust", "Cookiebot", "TrustArc"}
	ecommercePlatforms   = []string{"Shopify", "WooCommerce", "Magento", "BigCommerce"}
	conversionCategories = []string{"advertising", "marketing", "conversion"}
)

// Sub-score caps.
const (
	analyticsMax  = 40
	conversionMax = 35
	technicalMax  = 25
)

// TrackingReadiness scores how well a website is instrumented for
// measurement, from the technologies and tracking pixels detected on it.
func TrackingReadiness(snap *models.WebsiteSnapshot) Result {
	var technologies map[string][]string
	var pixels []string
	if snap != nil {
		technologies = snap.Technologies
		pixels = snap.TrackingPixels
	}

	var sections []Section
	var recommendations []Recommendation

	// Analytics tracking
	analyticsScore := 0
	var analyticsFound []string
	for category, tools := range technologies {
		if !strings.Contains(strings.ToLower(category), "analytics") {
			continue
		}
		for _, tool := range tools {
			if matchesAny(tool, analyticsTools) {
				analyticsFound = append(analyticsFound, tool)
				analyticsScore += 15
			}
		}
	}
	for _, pixel := range pixels {
		if strings.Contains(strings.ToLower(pixel), "analytics") {
			analyticsFound = append(analyticsFound, pixel)
			analyticsScore += 10
		}
	}
	analyticsScore = clamp(analyticsScore, 0, analyticsMax)

	sections = append(sections, Section{
		Title:    "Analytics Tracking",
		Score:    analyticsScore,
		MaxScore: analyticsMax,
		Status:   sectionStatus(analyticsScore, 30, 15),
		Details:  foundDetails(analyticsFound, "analytics tools", "No analytics tracking detected"),
		Items:    analyticsFound,
	})
	if analyticsScore < 15 {
		recommendations = append(recommendations, Recommendation{
			Priority:    PriorityHigh,
			Category:    "Analytics",
			Title:       "Install Web Analytics",
			Description: "Add Google Analytics 4 or similar analytics tracking to measure website performance",
		})
	}

	// Conversion tracking
	conversionScore := 0
	var conversionFound []string
	for _, pixel := range pixels {
		for _, conv := range conversionPixels {
			if strings.Contains(strings.ToLower(pixel), strings.ToLower(conv)) {
				conversionFound = append(conversionFound, pixel)
				conversionScore += 12
			}
		}
	}
	for category, tools := range technologies {
		if matchesAnyWord(category, conversionCategories) {
			conversionFound = append(conversionFound, tools...)
			conversionScore += 8
		}
	}
	conversionScore = clamp(conversionScore, 0, conversionMax)

	sections = append(sections, Section{
		Title:    "Conversion Tracking",
		Score:    conversionScore,
		MaxScore: conversionMax,
		Status:   sectionStatus(conversionScore, 25, 12),
		Details:  countDetails(len(conversionFound), "conversion tracking tools", "No conversion tracking detected"),
		Items:    conversionFound,
	})
	if conversionScore < 12 {
		recommendations = append(recommendations, Recommendation{
			Priority:    PriorityHigh,
			Category:    "Conversion Tracking",
			Title:       "Setup Conversion Pixels",
			Description: "Install Facebook Pixel, Google Ads tracking, or other platform pixels to track conversions",
		})
	}

	// Technical implementation
	technicalScore := 0
	var technicalItems []string
	for _, tools := range technologies {
		for _, tool := range tools {
			switch {
			case matchesAny(tool, tagManagers):
				technicalItems = append(technicalItems, "Tag Manager: "+tool)
				technicalScore += 10
			case matchesAny(tool, consentTools):
				technicalItems = append(technicalItems, "Consent Management: "+tool)
				technicalScore += 8
			case matchesAny(tool, ecommercePlatforms):
				technicalItems = append(technicalItems, "E-commerce Platform: "+tool)
				technicalScore += 7
			}
		}
	}
	technicalScore = clamp(technicalScore, 0, technicalMax)

	sections = append(sections, Section{
		Title:    "Technical Implementation",
		Score:    technicalScore,
		MaxScore: technicalMax,
		Status:   sectionStatus(technicalScore, 20, 10),
		Details:  countDetails(len(technicalItems), "technical implementations", "Basic technical setup"),
		Items:    technicalItems,
	})
	if technicalScore < 10 {
		recommendations = append(recommendations, Recommendation{
			Priority:    PriorityMedium,
			Category:    "Technical Setup",
			Title:       "Implement Tag Management",
			Description: "Setup Google Tag Manager to centralize tracking code management",
		})
	}

	score := clamp(analyticsScore+conversionScore+technicalScore, 0, 100)

	var confidence models.Confidence
	switch {
	case len(technologies) > 3 && len(pixels) > 2:
		confidence = models.ConfidenceHigh
	case len(technologies) > 1 || len(pixels) > 1:
		confidence = models.ConfidenceMedium
	default:
		confidence = models.ConfidenceLow
	}

	return Result{
		OverallScore:    score,
		Confidence:      confidence,
		Summary:         trackingSummary(score),
		Sections:        sections,
		Recommendations: truncateRecommendations(recommendations),
	}
}

func trackingSummary(score int) string {
	switch {
	case score >= 80:
		return "Excellent tracking setup with comprehensive analytics and conversion tracking."
	case score >= 60:
		return "Good tracking foundation with some areas for improvement."
	case score >= 40:
		return "Basic tracking in place but missing key components for optimal measurement."
	default:
		return "Limited tracking setup - significant improvements needed for effective measurement."
	}
}

func sectionStatus(score, excellent, good int) SectionStatus {
	switch {
	case score >= excellent:
		return StatusExcellent
	case score >= good:
		return StatusGood
	default:
		return StatusPoor
	}
}

func matchesAny(value string, candidates []string) bool {
	lower := strings.ToLower(value)
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func matchesAnyWord(category string, words []string) bool {
	lower := strings.ToLower(category)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func foundDetails(items []string, noun, empty string) string {
	if len(items) == 0 {
		return empty
	}
	preview := items
	if len(preview) > 3 {
		preview = preview[:3]
	}
	return fmt.Sprintf("Found %d %s: %s", len(items), noun, strings.Join(preview, ", "))
}

func countDetails(count int, noun, empty string) string {
	if count == 0 {
		return empty
	}
	return fmt.Sprintf("Found %d %s", count, noun)
}
