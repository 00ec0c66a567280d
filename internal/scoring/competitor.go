package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/synterhq/synter-api/internal/models"
)

// DomainOverview is the competitive-intelligence summary of one domain.
type DomainOverview struct {
	OrganicKeywords int     `json:"organic_keywords"`
	OrganicTraffic  int     `json:"organic_traffic"`
	AdKeywords      int     `json:"ad_keywords"`
	AdTraffic       int     `json:"ad_traffic"`
	AdCost          float64 `json:"ad_cost"`
}

// Competitor is one competing domain with its relevance to the target.
type Competitor struct {
	Domain               string  `json:"domain"`
	CompetitiveRelevance float64 `json:"competitive_relevance"` // 0..1
	CommonKeywords       int     `json:"common_keywords"`
	OrganicKeywords      int     `json:"organic_keywords"`
	AdKeywords           int     `json:"ad_keywords"`
	AdCost               float64 `json:"ad_cost"`
}

// AdCopy is one competitor ad creative used for messaging analysis.
type AdCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// KeywordGap is a keyword competitors rank for that the target does not.
type KeywordGap struct {
	Keyword
	CompetitorDomain string `json:"competitor_domain,omitempty"`
	CompetitorCount  int    `json:"competitor_count"`
}

// KeywordOpportunity is a scored, high-value keyword gap.
type KeywordOpportunity struct {
	KeywordGap
	OpportunityScore int `json:"opportunity_score"`
}

// CompetitorInput is the competitor snapshot engine's input.
type CompetitorInput struct {
	Domain             string
	Overview           DomainOverview
	OrganicCompetitors []Competitor
	PaidCompetitors    []Competitor
	KeywordGaps        []KeywordGap
	AdCopies           []AdCopy
}

// CompetitorAnalysis is the competitor snapshot engine's full output.
type CompetitorAnalysis struct {
	Result
	MarketPosition         string               `json:"market_position"`
	CompetitiveIntensity   string               `json:"competitive_intensity"`
	OrganicStrength        int                  `json:"organic_strength"`
	PaidStrength           int                  `json:"paid_strength"`
	Opportunities          []KeywordOpportunity `json:"top_keyword_opportunities,omitempty"`
	HighValueOpportunities int                  `json:"high_value_opportunities"`
	AvgOpportunityScore    float64              `json:"avg_opportunity_score"`
}

// Gaps scoring at or above this threshold count as opportunities.
const opportunityThreshold = 70

// Opportunity and gap lists are truncated to these lengths.
const maxOpportunities = 20

// CompetitorSnapshot scores the target domain's competitive position from
// organic/paid competitor data and keyword gap analysis. Overall score is
// the mean of the organic, paid, and keyword-opportunity sub-scores.
func CompetitorSnapshot(input CompetitorInput) CompetitorAnalysis {
	opportunities := scoreOpportunities(input.KeywordGaps)

	organic := organicStrength(input.Overview, input.OrganicCompetitors)
	paid := paidStrength(input.Overview, input.PaidCompetitors)
	oppScore := keywordOpportunityScore(opportunities)

	overall := (organic + paid + oppScore) / 3

	confidence := competitorConfidence(len(input.OrganicCompetitors), len(input.PaidCompetitors), len(opportunities))
	position := marketPosition(organic, paid)
	intensity := competitiveIntensity(input.OrganicCompetitors, input.PaidCompetitors)

	highValue := 0
	scoreSum := 0
	for _, o := range opportunities {
		if o.OpportunityScore >= 80 {
			highValue++
		}
		scoreSum += o.OpportunityScore
	}
	avgScore := 0.0
	if len(opportunities) > 0 {
		avgScore = float64(scoreSum) / float64(len(opportunities))
	}

	recs := competitorRecommendations(position, intensity, highValue, len(input.KeywordGaps), input)

	return CompetitorAnalysis{
		Result: Result{
			OverallScore: clamp(overall, 0, 100),
			Confidence:   confidence,
			Summary:      competitorSummary(overall, position, intensity, len(opportunities)),
			Sections: []Section{
				{
					Title:    "Organic Search Strength",
					Score:    organic,
					MaxScore: 100,
					Status:   sectionStatus(organic, 80, 60),
					Details:  fmt.Sprintf("%d organic keywords, %d organic competitors", input.Overview.OrganicKeywords, len(input.OrganicCompetitors)),
				},
				{
					Title:    "Paid Search Strength",
					Score:    paid,
					MaxScore: 100,
					Status:   sectionStatus(paid, 80, 60),
					Details:  fmt.Sprintf("%d ad keywords, %d paid competitors", input.Overview.AdKeywords, len(input.PaidCompetitors)),
				},
				{
					Title:    "Keyword Opportunity",
					Score:    oppScore,
					MaxScore: 100,
					Status:   sectionStatus(oppScore, 80, 60),
					Details:  fmt.Sprintf("%d opportunities found, %d high-value", len(opportunities), highValue),
				},
			},
			Recommendations: truncateRecommendations(recs),
		},
		MarketPosition:         position,
		CompetitiveIntensity:   intensity,
		OrganicStrength:        organic,
		PaidStrength:           paid,
		Opportunities:          opportunities,
		HighValueOpportunities: highValue,
		AvgOpportunityScore:    avgScore,
	}
}

// scoreOpportunities rates every gap and keeps the high-value ones,
// best first.
func scoreOpportunities(gaps []KeywordGap) []KeywordOpportunity {
	var opportunities []KeywordOpportunity
	for _, gap := range gaps {
		score := OpportunityScore(gap.Keyword, gap.CompetitorCount)
		if score >= opportunityThreshold {
			opportunities = append(opportunities, KeywordOpportunity{KeywordGap: gap, OpportunityScore: score})
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].OpportunityScore > opportunities[j].OpportunityScore
	})
	if len(opportunities) > maxOpportunities {
		opportunities = opportunities[:maxOpportunities]
	}
	return opportunities
}

func organicStrength(overview DomainOverview, competitors []Competitor) int {
	score := 50

	switch k := overview.OrganicKeywords; {
	case k >= 10000:
		score += 25
	case k >= 5000:
		score += 20
	case k >= 1000:
		score += 15
	case k >= 100:
		score += 10
	}

	switch rel := avgRelevance(competitors); {
	case rel >= 0.8:
		score += 15
	case rel >= 0.6:
		score += 10
	case rel >= 0.4:
		score += 5
	}

	switch t := overview.OrganicTraffic; {
	case t >= 100000:
		score += 10
	case t >= 50000:
		score += 7
	case t >= 10000:
		score += 5
	}

	return clamp(score, 0, 100)
}

func paidStrength(overview DomainOverview, competitors []Competitor) int {
	score := 50

	switch k := overview.AdKeywords; {
	case k >= 1000:
		score += 25
	case k >= 500:
		score += 20
	case k >= 100:
		score += 15
	case k >= 10:
		score += 10
	}

	switch rel := avgRelevance(competitors); {
	case rel >= 0.8:
		score += 15
	case rel >= 0.6:
		score += 10
	case rel >= 0.4:
		score += 5
	}

	// Competitor investment level
	investment := 0.0
	for i, c := range competitors {
		if i >= 3 {
			break
		}
		investment += c.AdCost
	}
	switch {
	case investment >= 50000:
		score += 10
	case investment >= 10000:
		score += 7
	case investment >= 1000:
		score += 5
	}

	return clamp(score, 0, 100)
}

func keywordOpportunityScore(opportunities []KeywordOpportunity) int {
	if len(opportunities) == 0 {
		return 30
	}

	highValue, mediumValue := 0, 0
	for _, o := range opportunities {
		switch {
		case o.OpportunityScore >= 80:
			highValue++
		case o.OpportunityScore >= 60:
			mediumValue++
		}
	}

	score := 40
	score += minInt(30, highValue*3)
	score += minInt(20, mediumValue*2)
	score += minInt(10, len(opportunities))
	return clamp(score, 0, 100)
}

func competitorConfidence(organic, paid, opportunities int) models.Confidence {
	switch {
	case organic >= 5 && paid >= 3 && opportunities >= 10:
		return models.ConfidenceHigh
	case organic >= 3 && paid >= 2 && opportunities >= 5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func marketPosition(organic, paid int) string {
	switch avg := (organic + paid) / 2; {
	case avg >= 80:
		return "Market Leader"
	case avg >= 65:
		return "Strong Competitor"
	case avg >= 50:
		return "Established Player"
	case avg >= 35:
		return "Emerging Player"
	default:
		return "New Entrant"
	}
}

func competitiveIntensity(organicCompetitors, paidCompetitors []Competitor) string {
	domains := make(map[string]struct{})
	for _, c := range organicCompetitors {
		domains[c.Domain] = struct{}{}
	}
	for _, c := range paidCompetitors {
		domains[c.Domain] = struct{}{}
	}

	total := len(domains)
	relevance := avgRelevance(organicCompetitors)

	switch {
	case total >= 10 && relevance >= 0.7:
		return "Very High"
	case total >= 7 && relevance >= 0.5:
		return "High"
	case total >= 5:
		return "Medium"
	default:
		return "Low"
	}
}

func competitorRecommendations(position, intensity string, highValue, totalGaps int, input CompetitorInput) []Recommendation {
	var recs []Recommendation

	switch position {
	case "New Entrant", "Emerging Player":
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Category: "Market Entry",
			Title:    "Focus on Long-Tail Keywords",
			Description: fmt.Sprintf("As a %s, target long-tail, low-competition keywords to establish market presence before competing on high-volume terms.",
				strings.ToLower(position)),
		})
	case "Market Leader", "Strong Competitor":
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Category: "Market Defense",
			Title:    "Defend Market Position",
			Description: fmt.Sprintf("Maintain strong %s position by monitoring competitor keyword movements and protecting branded terms.",
				strings.ToLower(position)),
		})
	}

	switch {
	case highValue >= 10:
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Category: "Keyword Expansion",
			Title:    "Capitalize on High-Value Keyword Gaps",
			Description: fmt.Sprintf("Found %d high-value keyword opportunities. Prioritize these for immediate campaign expansion.",
				highValue),
		})
	case totalGaps >= 20:
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Category: "Keyword Research",
			Title:    "Expand Keyword Portfolio",
			Description: fmt.Sprintf("Found %d keyword opportunities. Conduct deeper research to identify quick wins.",
				totalGaps),
		})
	}

	switch intensity {
	case "Very High":
		recs = append(recs, Recommendation{
			Priority:    PriorityHigh,
			Category:    "Differentiation",
			Title:       "Focus on Unique Value Proposition",
			Description: "High competitive intensity detected. Emphasize unique differentiators and consider niche targeting.",
		})
	case "Low":
		recs = append(recs, Recommendation{
			Priority:    PriorityMedium,
			Category:    "Market Opportunity",
			Title:       "Aggressive Market Expansion",
			Description: "Low competitive intensity presents growth opportunity. Consider increasing budget and expanding keyword targeting.",
		})
	}

	if hasFreeTrialMessaging(input.AdCopies) {
		recs = append(recs, Recommendation{
			Priority:    PriorityMedium,
			Category:    "Messaging",
			Title:       "Consider Free Trial Messaging",
			Description: "Competitors are successfully using free trial offers. Test similar low-risk trial offers.",
		})
	}

	if input.Overview.OrganicKeywords > input.Overview.AdKeywords*3 {
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Category: "Budget Allocation",
			Title:    "Increase Paid Search Investment",
			Description: fmt.Sprintf("Strong organic presence (%d keywords) vs limited paid presence (%d keywords). Consider expanding paid campaigns.",
				input.Overview.OrganicKeywords, input.Overview.AdKeywords),
		})
	}

	return recs
}

func competitorSummary(score int, position, intensity string, opportunities int) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("Strong competitive position as %s with %d keyword opportunities in a %s intensity market.",
			strings.ToLower(position), opportunities, strings.ToLower(intensity))
	case score >= 60:
		return fmt.Sprintf("Solid competitive foundation as %s with room for growth. %d keyword gaps identified.",
			strings.ToLower(position), opportunities)
	case score >= 40:
		return fmt.Sprintf("Developing competitive presence as %s. Significant opportunity with %d keyword gaps to pursue.",
			strings.ToLower(position), opportunities)
	default:
		return fmt.Sprintf("Early stage competitive position with substantial growth potential. %d keyword opportunities available for market entry.",
			opportunities)
	}
}

func hasFreeTrialMessaging(ads []AdCopy) bool {
	for _, ad := range ads {
		if strings.Contains(strings.ToLower(ad.Title), "free") ||
			strings.Contains(strings.ToLower(ad.Description), "trial") {
			return true
		}
	}
	return false
}

func avgRelevance(competitors []Competitor) float64 {
	if len(competitors) == 0 {
		return 0
	}
	n := len(competitors)
	if n > 5 {
		n = 5
	}
	sum := 0.0
	for _, c := range competitors[:n] {
		sum += c.CompetitiveRelevance
	}
	return sum / float64(n)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
