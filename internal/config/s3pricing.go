package config

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// PricingOverrides is the JSON document stored in the pricing bucket.
// Any field left nil keeps its default from DefaultBillingConfig.
type PricingOverrides struct {
	Plans map[string]PlanOverride `json:"plans,omitempty"`
	Packs map[string]PackOverride `json:"packs,omitempty"`
}

// PlanOverride adjusts a single plan's price or credit allotment.
type PlanOverride struct {
	PriceUSDCents  *int64 `json:"price_usd_cents,omitempty"`
	MonthlyCredits *int   `json:"monthly_credits,omitempty"`
	StripePriceID  string `json:"stripe_price_id,omitempty"`
}

// PackOverride adjusts a single credit pack.
type PackOverride struct {
	PriceUSDCents *int64 `json:"price_usd_cents,omitempty"`
	Credits       *int   `json:"credits,omitempty"`
	StripePriceID string `json:"stripe_price_id,omitempty"`
}

// PricingLoader serves the billing catalog, refreshed from an S3 object
// with ETag caching. When S3 is unconfigured or unreachable the static
// defaults are served.
type PricingLoader struct {
	s3Client *s3.Client
	bucket   string
	key      string

	mu           sync.RWMutex
	current      BillingConfig
	etag         string
	lastCheck    time.Time
	lastError    time.Time
	initialized  bool
	cacheTTL     time.Duration
	errorBackoff time.Duration
	logger       *slog.Logger
}

// PricingLoaderConfig configures a PricingLoader. S3Client may be nil to
// disable remote overrides entirely.
type PricingLoaderConfig struct {
	S3Client     *s3.Client
	Bucket       string
	Key          string
	CacheTTL     time.Duration // How often to check for updates (default: 5 min)
	ErrorBackoff time.Duration // How long to wait after an error (default: 1 min)
	Logger       *slog.Logger
}

// NewPricingLoader creates a loader seeded with the static catalog.
func NewPricingLoader(cfg PricingLoaderConfig) *PricingLoader {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ErrorBackoff == 0 {
		cfg.ErrorBackoff = 1 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &PricingLoader{
		s3Client:     cfg.S3Client,
		bucket:       cfg.Bucket,
		key:          cfg.Key,
		current:      DefaultBillingConfig(),
		cacheTTL:     cfg.CacheTTL,
		errorBackoff: cfg.ErrorBackoff,
		logger:       cfg.Logger,
	}
}

// Catalog returns the current billing catalog, refreshing from S3 when
// the cache TTL has elapsed.
func (l *PricingLoader) Catalog(ctx context.Context) BillingConfig {
	if l.needsRefresh() {
		l.refresh(ctx)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

func (l *PricingLoader) needsRefresh() bool {
	if l.s3Client == nil {
		return false
	}

	l.mu.RLock()
	stale := !l.initialized || time.Since(l.lastCheck) > l.cacheTTL
	inBackoff := !l.lastError.IsZero() && time.Since(l.lastError) < l.errorBackoff
	l.mu.RUnlock()

	return stale && !inBackoff
}

func (l *PricingLoader) refresh(ctx context.Context) {
	l.mu.Lock()
	currentEtag := l.etag
	l.mu.Unlock()

	input := &s3.GetObjectInput{
		Bucket: &l.bucket,
		Key:    &l.key,
	}
	if currentEtag != "" {
		quotedEtag := "\"" + currentEtag + "\""
		input.IfNoneMatch = &quotedEtag
	}

	resp, err := l.s3Client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			l.mu.Lock()
			wasInitialized := l.initialized
			l.initialized = true
			l.lastCheck = time.Now()
			l.lastError = time.Now()
			l.mu.Unlock()
			if !wasInitialized {
				l.logger.Debug("pricing overrides not found, using defaults",
					"bucket", l.bucket,
					"key", l.key,
				)
			}
			return
		}

		var notModified interface{ ErrorCode() string }
		if errors.As(err, &notModified) && notModified.ErrorCode() == "NotModified" {
			l.mu.Lock()
			l.lastCheck = time.Now()
			l.mu.Unlock()
			return
		}

		l.mu.Lock()
		l.lastError = time.Now()
		l.initialized = true
		l.mu.Unlock()
		l.logger.Error("failed to fetch pricing overrides",
			"error", err,
			"bucket", l.bucket,
			"key", l.key,
		)
		return
	}
	defer resp.Body.Close()

	var overrides PricingOverrides
	if err := json.NewDecoder(resp.Body).Decode(&overrides); err != nil {
		l.mu.Lock()
		l.lastError = time.Now()
		l.initialized = true
		l.mu.Unlock()
		l.logger.Error("failed to parse pricing overrides JSON", "error", err)
		return
	}

	catalog := DefaultBillingConfig()
	applyOverrides(&catalog, overrides)

	newEtag := ""
	if resp.ETag != nil {
		newEtag = strings.Trim(*resp.ETag, "\"")
	}

	l.mu.Lock()
	l.current = catalog
	l.etag = newEtag
	l.initialized = true
	l.lastCheck = time.Now()
	l.lastError = time.Time{}
	l.mu.Unlock()

	l.logger.Info("pricing overrides applied",
		"bucket", l.bucket,
		"key", l.key,
		"etag", newEtag,
	)
}

func applyOverrides(catalog *BillingConfig, overrides PricingOverrides) {
	for name, o := range overrides.Plans {
		plan, ok := catalog.Plans[name]
		if !ok {
			continue
		}
		if o.PriceUSDCents != nil {
			plan.PriceUSDCents = *o.PriceUSDCents
		}
		if o.MonthlyCredits != nil {
			plan.MonthlyCredits = *o.MonthlyCredits
		}
		if o.StripePriceID != "" {
			plan.StripePriceID = o.StripePriceID
		}
		catalog.Plans[name] = plan
	}

	for id, o := range overrides.Packs {
		pack, ok := catalog.Packs[id]
		if !ok {
			continue
		}
		if o.PriceUSDCents != nil {
			pack.PriceUSDCents = *o.PriceUSDCents
		}
		if o.Credits != nil {
			pack.Credits = *o.Credits
		}
		if o.StripePriceID != "" {
			pack.StripePriceID = o.StripePriceID
		}
		catalog.Packs[id] = pack
	}
}
