package scoring

import (
	"fmt"
	"sort"

	"github.com/synterhq/synter-api/internal/models"
)

// SpendInput is the aggregated input to the spend baseline engine.
type SpendInput struct {
	Records  []models.SpendRecord
	Accounts int // Number of connected accounts that returned data
	Days     int // Lookback window length
}

// PlatformStats aggregates spend performance for one ad platform.
type PlatformStats struct {
	Platform         string  `json:"platform"`
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	SpendShare       float64 `json:"spend_share"` // Percent of total spend
	AvgCPC           float64 `json:"avg_cpc"`
	AvgCTR           float64 `json:"avg_ctr"` // Percent
	AvgCPA           float64 `json:"avg_cpa"`
	Campaigns        int     `json:"campaigns"`
}

// PerformanceMetrics summarizes blended performance across platforms.
type PerformanceMetrics struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	AvgCPC           float64 `json:"avg_cpc"`
	AvgCTR           float64 `json:"avg_ctr"` // Percent
	AvgCPA           float64 `json:"avg_cpa"`
	ConversionRate   float64 `json:"conversion_rate"` // Percent of clicks
	AvgDailySpend    float64 `json:"avg_daily_spend"`
	ActiveDays       int     `json:"active_days"`
}

// SpendAnalysis is the spend baseline engine's full output.
type SpendAnalysis struct {
	Result
	PlatformBreakdown []PlatformStats    `json:"platform_breakdown,omitempty"`
	Performance       PerformanceMetrics `json:"performance_metrics"`
}

// SpendBaseline scores a workspace's advertising baseline from daily
// spend records. Zero usable records produce a no-data result rather
// than an error.
func SpendBaseline(input SpendInput) SpendAnalysis {
	if len(input.Records) == 0 {
		return SpendAnalysis{
			Result: Result{
				OverallScore: 0,
				Confidence:   models.ConfidenceLow,
				Summary:      "No connected ad accounts with spend data found.",
				NoData:       true,
			},
		}
	}

	breakdown := buildPlatformBreakdown(input.Records)
	performance := buildPerformanceMetrics(input.Records)

	score := baselineScore(breakdown, performance, input.Days)

	var confidence models.Confidence
	switch {
	case input.Accounts >= 2 && performance.TotalSpend > 1000:
		confidence = models.ConfidenceHigh
	case input.Accounts >= 1:
		confidence = models.ConfidenceMedium
	default:
		confidence = models.ConfidenceLow
	}

	return SpendAnalysis{
		Result: Result{
			OverallScore:    score,
			Confidence:      confidence,
			Summary:         spendSummary(score, performance.TotalSpend, input.Accounts),
			Sections:        spendSections(breakdown, performance),
			Recommendations: truncateRecommendations(spendRecommendations(breakdown, performance)),
		},
		PlatformBreakdown: breakdown,
		Performance:       performance,
	}
}

func buildPlatformBreakdown(records []models.SpendRecord) []PlatformStats {
	type totals struct {
		spend                            float64
		impressions, clicks, conversions int64
		campaigns                        map[string]struct{}
	}

	byPlatform := make(map[string]*totals)
	totalSpend := 0.0
	for _, r := range records {
		t, ok := byPlatform[r.Platform]
		if !ok {
			t = &totals{campaigns: make(map[string]struct{})}
			byPlatform[r.Platform] = t
		}
		t.spend += r.Spend
		t.impressions += r.Impressions
		t.clicks += r.Clicks
		t.conversions += r.Conversions
		t.campaigns[r.CampaignID] = struct{}{}
		totalSpend += r.Spend
	}

	breakdown := make([]PlatformStats, 0, len(byPlatform))
	for platform, t := range byPlatform {
		stats := PlatformStats{
			Platform:         platform,
			TotalSpend:       t.spend,
			TotalImpressions: t.impressions,
			TotalClicks:      t.clicks,
			TotalConversions: t.conversions,
			Campaigns:        len(t.campaigns),
		}
		if totalSpend > 0 {
			stats.SpendShare = t.spend / totalSpend * 100
		}
		if t.clicks > 0 {
			stats.AvgCPC = t.spend / float64(t.clicks)
		}
		if t.impressions > 0 {
			stats.AvgCTR = float64(t.clicks) / float64(t.impressions) * 100
		}
		if t.conversions > 0 {
			stats.AvgCPA = t.spend / float64(t.conversions)
		}
		breakdown = append(breakdown, stats)
	}

	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].TotalSpend > breakdown[j].TotalSpend
	})
	return breakdown
}

func buildPerformanceMetrics(records []models.SpendRecord) PerformanceMetrics {
	var m PerformanceMetrics
	days := make(map[string]struct{})
	for _, r := range records {
		m.TotalSpend += r.Spend
		m.TotalImpressions += r.Impressions
		m.TotalClicks += r.Clicks
		m.TotalConversions += r.Conversions
		days[r.Date] = struct{}{}
	}
	m.ActiveDays = len(days)

	if m.TotalClicks > 0 {
		m.AvgCPC = m.TotalSpend / float64(m.TotalClicks)
		m.ConversionRate = float64(m.TotalConversions) / float64(m.TotalClicks) * 100
	}
	if m.TotalImpressions > 0 {
		m.AvgCTR = float64(m.TotalClicks) / float64(m.TotalImpressions) * 100
	}
	if m.TotalConversions > 0 {
		m.AvgCPA = m.TotalSpend / float64(m.TotalConversions)
	}
	if m.ActiveDays > 0 {
		m.AvgDailySpend = m.TotalSpend / float64(m.ActiveDays)
	}
	return m
}

func baselineScore(breakdown []PlatformStats, performance PerformanceMetrics, days int) int {
	score := 50 // Neutral base

	// Platform diversity
	switch {
	case len(breakdown) >= 2:
		score += 15
	case len(breakdown) == 1:
		score += 5
	}

	// Spend volume: more spend means more signal
	switch spend := performance.TotalSpend; {
	case spend >= 5000:
		score += 20
	case spend >= 1000:
		score += 15
	case spend >= 500:
		score += 10
	case spend >= 100:
		score += 5
	}

	// Performance efficiency
	switch {
	case performance.AvgCTR >= 3.0:
		score += 10
	case performance.AvgCTR >= 2.0:
		score += 5
	}
	switch {
	case performance.AvgCPA > 0 && performance.AvgCPA <= 50:
		score += 10
	case performance.AvgCPA > 0 && performance.AvgCPA <= 100:
		score += 5
	}

	// Data depth
	if days >= 90 {
		score += 5
	}

	return clamp(score, 0, 100)
}

func spendSummary(score int, totalSpend float64, accounts int) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("Strong advertising baseline with $%.0f total spend across %d account(s).", totalSpend, accounts)
	case score >= 60:
		return fmt.Sprintf("Good advertising foundation with $%.0f spend, some optimization opportunities.", totalSpend)
	default:
		return fmt.Sprintf("Early stage advertising with $%.0f spend, significant growth potential.", totalSpend)
	}
}

func spendSections(breakdown []PlatformStats, performance PerformanceMetrics) []Section {
	platformItems := make([]string, 0, len(breakdown))
	for _, p := range breakdown {
		platformItems = append(platformItems, fmt.Sprintf("%s: $%.2f (%.0f%% of spend)", p.Platform, p.TotalSpend, p.SpendShare))
	}

	return []Section{
		{
			Title:    "Platform Coverage",
			Score:    clamp(len(breakdown)*50, 0, 100),
			MaxScore: 100,
			Status:   sectionStatus(len(breakdown)*50, 100, 50),
			Details:  fmt.Sprintf("Spend tracked on %d platform(s)", len(breakdown)),
			Items:    platformItems,
		},
		{
			Title:    "Blended Performance",
			Score:    clamp(int(performance.AvgCTR*25), 0, 100),
			MaxScore: 100,
			Status:   sectionStatus(int(performance.AvgCTR*25), 75, 50),
			Details: fmt.Sprintf("CPC $%.2f, CTR %.1f%%, CPA $%.2f over %d active day(s)",
				performance.AvgCPC, performance.AvgCTR, performance.AvgCPA, performance.ActiveDays),
		},
	}
}

func spendRecommendations(breakdown []PlatformStats, performance PerformanceMetrics) []Recommendation {
	var recs []Recommendation

	// Budget allocation across platforms
	if len(breakdown) > 1 {
		best, worst := breakdown[0], breakdown[0]
		for _, p := range breakdown {
			if p.AvgCPA > 0 && (best.AvgCPA == 0 || p.AvgCPA < best.AvgCPA) {
				best = p
			}
			if p.AvgCPA > worst.AvgCPA {
				worst = p
			}
		}
		if best.AvgCPA > 0 && worst.AvgCPA > best.AvgCPA*1.5 {
			recs = append(recs, Recommendation{
				Priority: PriorityHigh,
				Category: "Budget Allocation",
				Title:    fmt.Sprintf("Shift Budget to %s", best.Platform),
				Description: fmt.Sprintf("%s has %.1fx better CPA than %s. Consider reallocating 20%% of budget.",
					best.Platform, worst.AvgCPA/best.AvgCPA, worst.Platform),
			})
		}
	}

	if performance.AvgCTR < 2.0 {
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Category: "Performance",
			Title:    "Improve Click-Through Rates",
			Description: fmt.Sprintf("Average CTR of %.1f%% is below industry average. Consider refreshing ad copy and testing new creatives.",
				performance.AvgCTR),
		})
	}

	if performance.AvgCPA > 100 {
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Category: "Cost Efficiency",
			Title:    "Optimize Cost Per Acquisition",
			Description: fmt.Sprintf("Average CPA of $%.2f suggests room for optimization. Review targeting, bidding strategies, and landing page experience.",
				performance.AvgCPA),
		})
	}

	switch spend := performance.TotalSpend; {
	case spend < 500:
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Category: "Growth",
			Title:    "Consider Budget Increase",
			Description: fmt.Sprintf("Current spend of $%.0f may limit reach. Test 20-30%% budget increases on best-performing campaigns.",
				spend),
		})
	case spend > 10000:
		recs = append(recs, Recommendation{
			Priority: PriorityLow,
			Category: "Scale",
			Title:    "Optimize for Scale",
			Description: fmt.Sprintf("High spend volume of $%.0f detected. Focus on automated bidding and audience expansion.",
				spend),
		})
	}

	return recs
}
