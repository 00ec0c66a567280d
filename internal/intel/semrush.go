// Package intel provides the competitive intelligence client used by
// competitor snapshot reports. The Semrush analytics API answers with
// semicolon-separated CSV, one row per record, header first.
package intel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/synterhq/synter-api/internal/scoring"
)

// DefaultBaseURL is the Semrush analytics API endpoint.
const DefaultBaseURL = "https://api.semrush.com/"

// keywordFetchLimit is how many ranked keywords are pulled per domain
// for gap analysis.
const keywordFetchLimit = 200

// SemrushClient queries the Semrush analytics API.
type SemrushClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSemrushClient creates a Semrush client. An empty baseURL selects the
// production endpoint.
func NewSemrushClient(apiKey, baseURL string, timeout time.Duration) *SemrushClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &SemrushClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DomainOverview fetches headline organic and paid metrics for a domain.
func (c *SemrushClient) DomainOverview(ctx context.Context, domain string) (scoring.DomainOverview, error) {
	rows, err := c.query(ctx, url.Values{
		"type":           {"domain_organic"},
		"domain":         {domain},
		"export_columns": {"Dn,Rk,Or,Ot,Oc,Ad"},
	})
	if err != nil {
		return scoring.DomainOverview{}, err
	}
	if len(rows) == 0 || len(rows[0]) < 6 {
		return scoring.DomainOverview{}, fmt.Errorf("no overview data for %s", domain)
	}

	row := rows[0]
	return scoring.DomainOverview{
		OrganicKeywords: atoi(row[2]),
		OrganicTraffic:  atoi(row[3]),
		AdKeywords:      atoi(row[5]),
	}, nil
}

// OrganicCompetitors fetches domains competing in organic search.
func (c *SemrushClient) OrganicCompetitors(ctx context.Context, domain string, limit int) ([]scoring.Competitor, error) {
	rows, err := c.query(ctx, url.Values{
		"type":           {"domain_organic_organic"},
		"domain":         {domain},
		"display_limit":  {strconv.Itoa(limit)},
		"export_columns": {"Dn,Cr,Np,Ad,At,Ot,Kn"},
	})
	if err != nil {
		return nil, err
	}

	var competitors []scoring.Competitor
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		competitors = append(competitors, scoring.Competitor{
			Domain:               row[0],
			CompetitiveRelevance: atof(row[1]),
			CommonKeywords:       atoi(row[2]),
			AdKeywords:           atoi(row[3]),
			OrganicKeywords:      atoi(row[6]),
		})
	}
	return competitors, nil
}

// PaidCompetitors fetches domains competing in paid search.
func (c *SemrushClient) PaidCompetitors(ctx context.Context, domain string, limit int) ([]scoring.Competitor, error) {
	rows, err := c.query(ctx, url.Values{
		"type":           {"domain_adwords_adwords"},
		"domain":         {domain},
		"display_limit":  {strconv.Itoa(limit)},
		"export_columns": {"Dn,Cr,Np,Ad,At,Ac,Pc"},
	})
	if err != nil {
		return nil, err
	}

	var competitors []scoring.Competitor
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		competitors = append(competitors, scoring.Competitor{
			Domain:               row[0],
			CompetitiveRelevance: atof(row[1]),
			CommonKeywords:       atoi(row[2]),
			AdKeywords:           atoi(row[3]),
			AdCost:               atof(row[5]),
		})
	}
	return competitors, nil
}

// AdCopies fetches a competitor's ad creatives for messaging analysis.
func (c *SemrushClient) AdCopies(ctx context.Context, domain string, limit int) ([]scoring.AdCopy, error) {
	rows, err := c.query(ctx, url.Values{
		"type":           {"domain_adwords_unique"},
		"domain":         {domain},
		"display_limit":  {strconv.Itoa(limit)},
		"export_columns": {"Ur,Tt,Dt"},
	})
	if err != nil {
		return nil, err
	}

	var copies []scoring.AdCopy
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		copies = append(copies, scoring.AdCopy{
			Title:       row[1],
			Description: row[2],
		})
	}
	return copies, nil
}

// DomainKeywords fetches a domain's ranked keywords.
func (c *SemrushClient) DomainKeywords(ctx context.Context, domain string, limit int) ([]scoring.Keyword, error) {
	rows, err := c.query(ctx, url.Values{
		"type":           {"domain_organic"},
		"domain":         {domain},
		"display_limit":  {strconv.Itoa(limit)},
		"export_columns": {"Ph,Po,Nq,Cp,Co"},
	})
	if err != nil {
		return nil, err
	}

	var keywords []scoring.Keyword
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		keywords = append(keywords, scoring.Keyword{
			Keyword:      row[0],
			Position:     atoi(row[1]),
			SearchVolume: atoi(row[2]),
			CPC:          atof(row[3]),
			Competition:  atof(row[4]),
		})
	}
	return keywords, nil
}

// KeywordGaps finds keywords competitors rank for that the target does
// not. When several competitors share a gap the highest-volume version
// wins and the competitor count is recorded.
func (c *SemrushClient) KeywordGaps(ctx context.Context, target string, competitors []string) ([]scoring.KeywordGap, error) {
	targetKeywords, err := c.DomainKeywords(ctx, target, keywordFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target keywords: %w", err)
	}

	targetSet := make(map[string]struct{}, len(targetKeywords))
	for _, kw := range targetKeywords {
		targetSet[strings.ToLower(kw.Keyword)] = struct{}{}
	}

	type gapEntry struct {
		best  scoring.Keyword
		count int
	}
	gaps := make(map[string]*gapEntry)

	for _, domain := range competitors {
		keywords, err := c.DomainKeywords(ctx, domain, keywordFetchLimit)
		if err != nil {
			// Partial coverage still produces a useful gap list
			continue
		}
		for _, kw := range keywords {
			key := strings.ToLower(kw.Keyword)
			if _, ranks := targetSet[key]; ranks {
				continue
			}
			entry, ok := gaps[key]
			if !ok {
				gaps[key] = &gapEntry{best: kw, count: 1}
				continue
			}
			entry.count++
			if kw.SearchVolume > entry.best.SearchVolume {
				entry.best = kw
			}
		}
	}

	result := make([]scoring.KeywordGap, 0, len(gaps))
	for _, entry := range gaps {
		result = append(result, scoring.KeywordGap{
			Keyword:         entry.best,
			CompetitorCount: entry.count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SearchVolume != result[j].SearchVolume {
			return result[i].SearchVolume > result[j].SearchVolume
		}
		return result[i].Keyword.Keyword < result[j].Keyword.Keyword
	})
	return result, nil
}

// query performs one API call and returns the parsed data rows with the
// header stripped.
func (c *SemrushClient) query(ctx context.Context, params url.Values) ([][]string, error) {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	text := strings.TrimSpace(string(body))
	// The API reports "ERROR 50 :: NOTHING FOUND" style messages with a
	// 200 status for empty result sets.
	if strings.HasPrefix(text, "ERROR") {
		if strings.Contains(text, "NOTHING FOUND") {
			return nil, nil
		}
		return nil, fmt.Errorf("API error: %s", text)
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil, nil
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, ";"))
	}
	return rows, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
