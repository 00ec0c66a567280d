package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// MetaAPIBase is the base URL for the Meta Marketing API.
const MetaAPIBase = "https://graph.facebook.com"

// conversionActionTypes are the insight action types counted as
// conversions.
var conversionActionTypes = map[string]bool{
	"purchase":              true,
	"lead":                  true,
	"complete_registration": true,
}

// MetaConnector fetches spend data from the Meta Marketing API.
type MetaConnector struct {
	baseURL    string
	httpClient *http.Client
}

// NewMetaConnector creates a Meta connector. An empty baseURL selects
// the production endpoint.
func NewMetaConnector(baseURL string, timeout time.Duration) *MetaConnector {
	if baseURL == "" {
		baseURL = MetaAPIBase
	}
	return &MetaConnector{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *MetaConnector) Platform() models.AdPlatform {
	return models.AdPlatformMeta
}

type metaInsightsResponse struct {
	Data   []metaInsight `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type metaInsight struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Spend        string `json:"spend"`
	Impressions  string `json:"impressions"`
	Clicks       string `json:"clicks"`
	DateStart    string `json:"date_start"`
	Actions      []struct {
		ActionType string `json:"action_type"`
		Value      string `json:"value"`
	} `json:"actions"`
}

func (c *MetaConnector) FetchSpend(ctx context.Context, externalAccountID, accessToken string, since, until time.Time) ([]models.SpendRecord, error) {
	timeRange, err := json.Marshal(map[string]string{
		"since": since.Format(dateFormat),
		"until": until.Format(dateFormat),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal time range: %w", err)
	}

	params := url.Values{
		"level":          {"campaign"},
		"time_increment": {"1"},
		"fields":         {"campaign_id,campaign_name,spend,impressions,clicks,actions"},
		"time_range":     {string(timeRange)},
		"access_token":   {accessToken},
	}

	endpoint := fmt.Sprintf("%s/v19.0/act_%s/insights?%s", c.baseURL, externalAccountID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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

	var result metaInsightsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	records := make([]models.SpendRecord, 0, len(result.Data))
	for _, insight := range result.Data {
		var conversions int64
		for _, action := range insight.Actions {
			if conversionActionTypes[action.ActionType] {
				n, _ := strconv.ParseInt(action.Value, 10, 64)
				conversions += n
			}
		}

		spend, _ := strconv.ParseFloat(insight.Spend, 64)
		impressions, _ := strconv.ParseInt(insight.Impressions, 10, 64)
		clicks, _ := strconv.ParseInt(insight.Clicks, 10, 64)

		records = append(records, models.SpendRecord{
			Date:         insight.DateStart,
			Platform:     string(models.AdPlatformMeta),
			CampaignID:   insight.CampaignID,
			CampaignName: insight.CampaignName,
			Spend:        spend,
			Impressions:  impressions,
			Clicks:       clicks,
			Conversions:  conversions,
		})
	}
	return records, nil
}
