// Package service contains the business logic layer.
// Workspace identity and authentication live with the identity provider;
// the WorkspaceID in services references its workspace ids ("ws_xxx").
package service

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/synterhq/synter-api/internal/ads"
	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/crypto"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Entitlement *EntitlementService
	Report      *ReportService
	Billing     *BillingService
	Analyzer    *AnalyzerService
	Spend       *SpendService
	Workspace   *WorkspaceService
	Pricing     *config.PricingLoader
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) (*Services, error) {
	sealer, err := crypto.NewTokenSealer(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token sealer: %w", err)
	}

	pricing, err := newPricingLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	billingCfg := pricing.Catalog(context.Background())

	connectors := map[models.AdPlatform]ads.Connector{
		models.AdPlatformGoogle: ads.NewGoogleConnector(cfg.GoogleAdsBaseURL, cfg.ExternalCallTimeout),
		models.AdPlatformMeta:   ads.NewMetaConnector(cfg.MetaAdsBaseURL, cfg.ExternalCallTimeout),
	}

	var insights InsightGenerator
	if cfg.InsightsLLMEnabled() {
		insights = NewLLMInsightGenerator(cfg.OpenAIAPIKey, "", cfg.InsightModel, cfg.ExternalCallTimeout, logger)
	} else {
		logger.Info("LLM insights disabled, using template generator")
		insights = NewTemplateInsightGenerator()
	}

	entitlementSvc := NewEntitlementService(repos, &billingCfg, logger)
	analyzerSvc := NewAnalyzerService(repos, cfg, logger)
	competitorIntel := NewCompetitorIntel(cfg, logger)

	reportSvc := NewReportService(
		repos, cfg, &billingCfg, entitlementSvc, analyzerSvc,
		competitorIntel, connectors, sealer, insights, logger,
	)
	billingSvc := NewBillingService(repos, cfg, pricing, logger)
	spendSvc := NewSpendService(repos, sealer, connectors, logger)
	workspaceSvc := NewWorkspaceService(repos, &billingCfg, logger)

	return &Services{
		Entitlement: entitlementSvc,
		Report:      reportSvc,
		Billing:     billingSvc,
		Analyzer:    analyzerSvc,
		Spend:       spendSvc,
		Workspace:   workspaceSvc,
		Pricing:     pricing,
	}, nil
}

// newPricingLoader builds the catalog loader, attaching an S3 client only
// when a pricing bucket is configured.
func newPricingLoader(cfg *config.Config, logger *slog.Logger) (*config.PricingLoader, error) {
	loaderCfg := config.PricingLoaderConfig{
		Bucket: cfg.PricingBucket,
		Key:    cfg.PricingKey,
		Logger: logger,
	}

	if cfg.PricingOverridesEnabled() {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.StorageRegion),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		loaderCfg.S3Client = s3.NewFromConfig(awsCfg)
		logger.Info("pricing overrides enabled",
			"bucket", cfg.PricingBucket,
			"key", cfg.PricingKey,
		)
	}

	return config.NewPricingLoader(loaderCfg), nil
}
