// Package config handles application configuration.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// CancellationPolicy controls what happens to a workspace's entitlements
// when its subscription is canceled.
type CancellationPolicy string

const (
	// CancelImmediate downgrades the workspace to FREE as soon as the
	// cancellation event arrives.
	CancelImmediate CancellationPolicy = "immediate"
	// CancelAtPeriodEnd records the cancellation and lets the next
	// monthly reset downgrade the workspace.
	CancelAtPeriodEnd CancellationPolicy = "period_end"
	// CancelNone records the event for audit only and never touches
	// entitlements.
	CancelNone CancellationPolicy = "none"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Frontend origin, used for checkout redirect URLs
	FrontendURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret     string
	JWTExpiry     time.Duration
	EncryptionKey []byte // 32-byte key for AES-256-GCM encryption of ad tokens

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// Identity provider (workspace lifecycle webhooks, Svix-signed)
	WorkspaceWebhookSecret string

	// CORS
	CORSOrigins []string

	// Report generation
	ExternalCallTimeout time.Duration // Per upstream data source (scraper, ads, intel)
	SpendLookbackDays   int           // Default SPEND_BASELINE window
	ReportStaleAfter    time.Duration // Age before a stuck generating report is failed
	SweepInterval       time.Duration // How often the stale-report sweeper runs

	// Website analyzer
	AnalyzerTimeout time.Duration
	SnapshotMaxAge  time.Duration // Reuse window for stored website snapshots

	// Competitive intelligence
	SemrushAPIKey  string
	SemrushBaseURL string

	// Ads connectors
	GoogleAdsBaseURL string
	MetaAdsBaseURL   string

	// Insight generation (LLM-backed personas; template fallback always available)
	OpenAIAPIKey string
	InsightModel string

	// Billing policy
	CancellationPolicy CancellationPolicy

	// Pricing overrides (S3-compatible object storage)
	PricingBucket string
	PricingKey    string
	StorageRegion string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		DatabaseURL: getEnv("DATABASE_URL", "file:synter.db?_journal=WAL&_timeout=5000"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTExpiry:   getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		WorkspaceWebhookSecret: getEnv("WORKSPACE_WEBHOOK_SECRET", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		ExternalCallTimeout: getEnvDuration("EXTERNAL_CALL_TIMEOUT", 30*time.Second),
		SpendLookbackDays:   getEnvInt("SPEND_LOOKBACK_DAYS", 30),
		ReportStaleAfter:    getEnvDuration("REPORT_STALE_AFTER", 10*time.Minute),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", time.Minute),

		AnalyzerTimeout: getEnvDuration("ANALYZER_TIMEOUT", 20*time.Second),
		SnapshotMaxAge:  getEnvDuration("SNAPSHOT_MAX_AGE", 24*time.Hour),

		SemrushAPIKey:  getEnv("SEMRUSH_API_KEY", ""),
		SemrushBaseURL: getEnv("SEMRUSH_BASE_URL", "https://api.semrush.com"),

		GoogleAdsBaseURL: getEnv("GOOGLE_ADS_BASE_URL", "https://googleads.googleapis.com"),
		MetaAdsBaseURL:   getEnv("META_ADS_BASE_URL", "https://graph.facebook.com"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		InsightModel: getEnv("INSIGHT_MODEL", "gpt-4o-mini"),

		PricingBucket: getEnvWithFallback("BUCKET_NAME", "PRICING_BUCKET", ""),
		PricingKey:    getEnv("PRICING_KEY", "pricing.json"),
		StorageRegion: getEnv("AWS_REGION", "auto"),
	}

	switch policy := CancellationPolicy(getEnv("BILLING_CANCELLATION_POLICY", string(CancelAtPeriodEnd))); policy {
	case CancelImmediate, CancelAtPeriodEnd, CancelNone:
		cfg.CancellationPolicy = policy
	default:
		return nil, fmt.Errorf("BILLING_CANCELLATION_POLICY must be one of immediate, period_end, none")
	}

	// Generate a random JWT secret if not provided (dev convenience)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateRandomSecret(64)
	}

	// Set up encryption key (derive from JWT secret if not explicitly set)
	encKeyStr := getEnv("ENCRYPTION_KEY", "")
	if encKeyStr != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	} else {
		cfg.EncryptionKey = deriveEncryptionKey(cfg.JWTSecret)
	}

	return cfg, nil
}

// InsightsLLMEnabled returns true if the LLM-backed insight generator is
// configured. The template generator is used otherwise.
func (c *Config) InsightsLLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// SemrushEnabled returns true if the competitive-intelligence client has
// credentials.
func (c *Config) SemrushEnabled() bool {
	return c.SemrushAPIKey != ""
}

// PricingOverridesEnabled returns true if an S3 pricing bucket is configured.
func (c *Config) PricingOverridesEnabled() bool {
	return c.PricingBucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback (should never happen)
		return "dev-secret-change-me-" + base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string
// using HKDF-SHA256.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("synter-api-encryption-key-v1")
	info := []byte("aes-256-gcm-ad-token-encryption")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
