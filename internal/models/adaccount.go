package models

import "time"

// AdPlatform identifies a connected advertising platform.
type AdPlatform string

const (
	AdPlatformGoogle AdPlatform = "google"
	AdPlatformMeta   AdPlatform = "meta"
)

// AdAccountStatus represents the connection state of an ad account.
type AdAccountStatus string

const (
	AdAccountActive       AdAccountStatus = "active"
	AdAccountDisconnected AdAccountStatus = "disconnected"
)

// AdAccount is a workspace's connection to an advertising platform.
// Tokens are stored AES-GCM encrypted and never serialized.
type AdAccount struct {
	ID                string          `json:"id"`
	WorkspaceID       string          `json:"workspace_id"`
	Platform          AdPlatform      `json:"platform"`
	ExternalAccountID string          `json:"external_account_id"`
	Name              string          `json:"name"`
	Status            AdAccountStatus `json:"status"`

	AccessTokenEnc  string `json:"-"`
	RefreshTokenEnc string `json:"-"`

	ConnectedAt time.Time `json:"connected_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SpendRecord is one day of campaign performance from an ads connector.
type SpendRecord struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Platform     string  `json:"platform"`
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	Spend        float64 `json:"spend"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Conversions  int64   `json:"conversions"`
}
