package service

import (
	"context"
	"log/slog"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/intel"
	"github.com/synterhq/synter-api/internal/scoring"
)

// CompetitorIntel is the competitive-intelligence surface the report
// pipeline consumes. *intel.SemrushClient satisfies it.
type CompetitorIntel interface {
	DomainOverview(ctx context.Context, domain string) (scoring.DomainOverview, error)
	OrganicCompetitors(ctx context.Context, domain string, limit int) ([]scoring.Competitor, error)
	PaidCompetitors(ctx context.Context, domain string, limit int) ([]scoring.Competitor, error)
	AdCopies(ctx context.Context, domain string, limit int) ([]scoring.AdCopy, error)
	KeywordGaps(ctx context.Context, target string, competitors []string) ([]scoring.KeywordGap, error)
}

var _ CompetitorIntel = (*intel.SemrushClient)(nil)

// NewCompetitorIntel builds the intel client from config, or returns nil
// when no API key is set. COMPETITOR_SNAPSHOT reports then degrade to a
// free no-data result instead of failing.
func NewCompetitorIntel(cfg *config.Config, logger *slog.Logger) CompetitorIntel {
	if !cfg.SemrushEnabled() {
		logger.Info("competitive intelligence disabled, no API key configured")
		return nil
	}
	return intel.NewSemrushClient(cfg.SemrushAPIKey, cfg.SemrushBaseURL, cfg.ExternalCallTimeout)
}
