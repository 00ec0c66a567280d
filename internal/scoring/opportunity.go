package scoring

// Keyword is one keyword metric row from the competitive-intelligence
// client. Zero values for Competition and Position mean "unknown" and
// fall back to neutral defaults when scored.
type Keyword struct {
	Keyword      string  `json:"keyword"`
	Position     int     `json:"position"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"` // 0..1
}

// OpportunityScore rates a keyword gap as an expansion target. The score
// is a weighted-tier function of volume, competition, commercial value,
// how many competitors target the term, and how well they rank for it.
func OpportunityScore(kw Keyword, competitorCount int) int {
	score := 50

	// Search volume
	switch v := kw.SearchVolume; {
	case v >= 10000:
		score += 30
	case v >= 1000:
		score += 20
	case v >= 100:
		score += 10
	case v >= 10:
		score += 5
	}

	// Competition, inverse: low competition is the opportunity
	competition := kw.Competition
	if competition == 0 {
		competition = 0.5
	}
	switch {
	case competition <= 0.3:
		score += 20
	case competition <= 0.6:
		score += 10
	case competition <= 0.8:
		score += 5
	}

	// CPC as a commercial-value proxy
	switch c := kw.CPC; {
	case c >= 10:
		score += 15
	case c >= 5:
		score += 10
	case c >= 1:
		score += 5
	}

	// Multiple competitors targeting the same term
	switch {
	case competitorCount >= 3:
		score += 10
	case competitorCount >= 2:
		score += 5
	}

	// Competitor ranking position: a well-ranked term is proven
	position := kw.Position
	if position == 0 {
		position = 100
	}
	switch {
	case position <= 3:
		score += 15
	case position <= 10:
		score += 10
	case position <= 20:
		score += 5
	}

	return clamp(score, 0, 100)
}
