package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// GoogleAdsAPIBase is the base URL for the Google Ads API.
const GoogleAdsAPIBase = "https://googleads.googleapis.com"

// GoogleConnector fetches spend data from the Google Ads API.
type GoogleConnector struct {
	baseURL    string
	httpClient *http.Client
}

// NewGoogleConnector creates a Google Ads connector. An empty baseURL
// selects the production endpoint.
func NewGoogleConnector(baseURL string, timeout time.Duration) *GoogleConnector {
	if baseURL == "" {
		baseURL = GoogleAdsAPIBase
	}
	return &GoogleConnector{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GoogleConnector) Platform() models.AdPlatform {
	return models.AdPlatformGoogle
}

type googleSearchRequest struct {
	Query string `json:"query"`
}

type googleSearchResponse struct {
	Results       []googleRow `json:"results"`
	NextPageToken string      `json:"nextPageToken"`
}

type googleRow struct {
	Campaign struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"campaign"`
	Metrics struct {
		CostMicros  int64   `json:"costMicros,string"`
		Impressions int64   `json:"impressions,string"`
		Clicks      int64   `json:"clicks,string"`
		Conversions float64 `json:"conversions"`
	} `json:"metrics"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
}

func (c *GoogleConnector) FetchSpend(ctx context.Context, externalAccountID, accessToken string, since, until time.Time) ([]models.SpendRecord, error) {
	query := fmt.Sprintf(
		`SELECT campaign.id, campaign.name, metrics.cost_micros, metrics.impressions, metrics.clicks, metrics.conversions, segments.date `+
			`FROM campaign WHERE segments.date BETWEEN '%s' AND '%s'`,
		since.Format(dateFormat), until.Format(dateFormat),
	)

	payload, err := json.Marshal(googleSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/v16/customers/%s/googleAds:search", c.baseURL, externalAccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

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

	var result googleSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	records := make([]models.SpendRecord, 0, len(result.Results))
	for _, row := range result.Results {
		records = append(records, models.SpendRecord{
			Date:         row.Segments.Date,
			Platform:     string(models.AdPlatformGoogle),
			CampaignID:   row.Campaign.ID,
			CampaignName: row.Campaign.Name,
			Spend:        float64(row.Metrics.CostMicros) / 1e6,
			Impressions:  row.Metrics.Impressions,
			Clicks:       row.Metrics.Clicks,
			Conversions:  int64(row.Metrics.Conversions),
		})
	}
	return records, nil
}
