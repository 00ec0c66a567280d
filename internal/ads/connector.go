// Package ads provides spend-data connectors for the supported ad
// platforms. Connectors fetch daily campaign performance used by spend
// baseline reports; a connector failure degrades the report rather than
// failing it.
package ads

import (
	"context"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// Connector fetches daily campaign spend from one ad platform.
type Connector interface {
	Platform() models.AdPlatform
	// FetchSpend returns per-campaign daily records covering [since, until].
	// The access token is the decrypted OAuth token for the account.
	FetchSpend(ctx context.Context, externalAccountID, accessToken string, since, until time.Time) ([]models.SpendRecord, error)
}

// dateFormat is the day granularity used in spend records.
const dateFormat = "2006-01-02"
