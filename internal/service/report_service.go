package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/synterhq/synter-api/internal/ads"
	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/crypto"
	"github.com/synterhq/synter-api/internal/fingerprint"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
	"github.com/synterhq/synter-api/internal/scoring"
)

// ReportRequest is the input to report generation. Exactly one of the
// type-specific fields is consulted per report type.
type ReportRequest struct {
	Type models.ReportType

	// TRACKING_READINESS
	URL string

	// SPEND_BASELINE. Empty AccountIDs means all active accounts; zero
	// Days selects the configured default window.
	AccountIDs []string
	Days       int

	// COMPETITOR_SNAPSHOT
	Domain string
}

// ReportService runs the report pipeline: fingerprint, cache lookup,
// access check, background generation, persistence, and the post-success
// credit charge.
type ReportService struct {
	repos        *repository.Repositories
	cfg          *config.Config
	billing      *config.BillingConfig
	entitlements *EntitlementService
	analyzer     *AnalyzerService
	intel        CompetitorIntel // nil when unconfigured
	connectors   map[models.AdPlatform]ads.Connector
	sealer       *crypto.TokenSealer
	insights     InsightGenerator
	logger       *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	repos *repository.Repositories,
	cfg *config.Config,
	billing *config.BillingConfig,
	entitlements *EntitlementService,
	analyzer *AnalyzerService,
	competitorIntel CompetitorIntel,
	connectors map[models.AdPlatform]ads.Connector,
	sealer *crypto.TokenSealer,
	insights InsightGenerator,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		repos:        repos,
		cfg:          cfg,
		billing:      billing,
		entitlements: entitlements,
		analyzer:     analyzer,
		intel:        competitorIntel,
		connectors:   connectors,
		sealer:       sealer,
		insights:     insights,
		logger:       logger,
	}
}

// reportPlan is a validated, fingerprinted request.
type reportPlan struct {
	request    ReportRequest
	inputHash  string
	title      string
	websiteID  *string
	accountIDs []string
	domain     string
}

// Generate starts report generation for the workspace. A ready report
// with the same fingerprint is returned directly without charging; an
// in-flight one is returned so the caller can poll it. Otherwise a
// generating placeholder is stored, the pipeline runs in the background,
// and credits are charged only after the report reaches ready.
func (s *ReportService) Generate(ctx context.Context, workspaceID string, req ReportRequest) (*models.Report, error) {
	plan, err := s.plan(ctx, workspaceID, req)
	if err != nil {
		return nil, err
	}

	if cached, err := s.repos.Report.FindReady(ctx, workspaceID, req.Type, plan.inputHash); err != nil {
		return nil, fmt.Errorf("failed to check report cache: %w", err)
	} else if cached != nil {
		s.logger.Info("report cache hit",
			"workspace_id", workspaceID,
			"report_type", req.Type,
			"report_id", cached.ID,
		)
		return cached, nil
	}

	if inflight, err := s.repos.Report.FindGenerating(ctx, workspaceID, req.Type, plan.inputHash); err != nil {
		return nil, fmt.Errorf("failed to check in-flight reports: %w", err)
	} else if inflight != nil {
		return inflight, nil
	}

	check, err := s.entitlements.CheckAccess(ctx, workspaceID, req.Type)
	if err != nil {
		return nil, err
	}
	if !check.CanGenerate {
		if check.LimitReason == "monthly report limit reached" {
			return nil, ErrMonthlyLimitReached
		}
		return nil, ErrInsufficientCredits
	}

	now := time.Now().UTC()
	report := &models.Report{
		ID:          newID("rpt_"),
		WorkspaceID: workspaceID,
		ReportType:  req.Type,
		InputHash:   plan.inputHash,
		WebsiteID:   plan.websiteID,
		Title:       plan.title,
		Status:      models.ReportStatusGenerating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Report.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	// Detached from the request context: the caller gets the placeholder
	// back immediately and polls for the terminal state.
	go s.run(context.WithoutCancel(ctx), report, plan)

	return report, nil
}

// GetByID returns a workspace's report.
func (s *ReportService) GetByID(ctx context.Context, workspaceID, reportID string) (*models.Report, error) {
	report, err := s.repos.Report.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil || report.WorkspaceID != workspaceID {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// List returns the workspace's reports, newest first.
func (s *ReportService) List(ctx context.Context, workspaceID string, limit, offset int) ([]*models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repos.Report.ListByWorkspace(ctx, workspaceID, limit, offset)
}

// Delete removes a workspace's report.
func (s *ReportService) Delete(ctx context.Context, workspaceID, reportID string) error {
	if _, err := s.GetByID(ctx, workspaceID, reportID); err != nil {
		return err
	}
	return s.repos.Report.Delete(ctx, reportID)
}

// plan validates the request and computes its fingerprint.
func (s *ReportService) plan(ctx context.Context, workspaceID string, req ReportRequest) (*reportPlan, error) {
	if !s.billing.IsValidReportType(string(req.Type)) {
		return nil, ErrInvalidReportType
	}

	plan := &reportPlan{request: req}

	switch req.Type {
	case models.ReportTypeTrackingReadiness:
		if req.URL == "" {
			return nil, ErrInvalidInput
		}
		hash, err := fingerprint.TrackingReadiness(req.URL)
		if err != nil {
			return nil, ErrInvalidInput
		}
		websiteID, err := fingerprint.WebsiteID(req.URL)
		if err != nil {
			return nil, ErrInvalidInput
		}
		plan.inputHash = hash
		plan.websiteID = &websiteID
		plan.title = "Tracking Readiness: " + req.URL

	case models.ReportTypeSpendBaseline:
		ids := req.AccountIDs
		if len(ids) == 0 {
			accounts, err := s.repos.AdAccount.ListActiveByWorkspace(ctx, workspaceID)
			if err != nil {
				return nil, fmt.Errorf("failed to list ad accounts: %w", err)
			}
			for _, a := range accounts {
				ids = append(ids, a.ID)
			}
		}
		days := req.Days
		if days <= 0 {
			days = s.cfg.SpendLookbackDays
		}
		plan.accountIDs = ids
		plan.request.Days = days
		plan.inputHash = fingerprint.SpendBaseline(ids, days)
		plan.title = fmt.Sprintf("Spend Baseline: last %d days", days)

	case models.ReportTypeCompetitorSnapshot:
		if req.Domain == "" {
			return nil, ErrInvalidInput
		}
		domain, err := fingerprint.NormalizeDomain(req.Domain)
		if err != nil {
			return nil, ErrInvalidInput
		}
		hash, err := fingerprint.CompetitorSnapshot(req.Domain)
		if err != nil {
			return nil, ErrInvalidInput
		}
		plan.domain = domain
		plan.inputHash = hash
		plan.title = "Competitor Snapshot: " + domain
	}

	return plan, nil
}

// ========================================
// Background pipeline
// ========================================

// reportPayload is the full engine output persisted as the report's data
// document.
type reportPayload struct {
	scoring.Result
	Snapshot   *models.WebsiteSnapshot     `json:"website_snapshot,omitempty"`
	Insights   []models.Insight            `json:"insights,omitempty"`
	Spend      *scoring.SpendAnalysis      `json:"spend_analysis,omitempty"`
	Competitor *scoring.CompetitorAnalysis `json:"competitor_analysis,omitempty"`
}

func (s *ReportService) run(ctx context.Context, report *models.Report, plan *reportPlan) {
	start := time.Now()

	payload, err := s.generate(ctx, report, plan)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		s.logger.Error("report generation failed",
			"report_id", report.ID,
			"report_type", report.ReportType,
			"error", err,
		)
		report.Status = models.ReportStatusFailed
		report.Summary = "Report generation failed"
		report.GenerationTimeMs = elapsed
		report.UpdatedAt = time.Now().UTC()
		if uerr := s.repos.Report.Update(ctx, report); uerr != nil {
			s.logger.Error("failed to persist failed report", "report_id", report.ID, "error", uerr)
		}
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal report payload", "report_id", report.ID, "error", err)
		data = []byte("{}")
	}

	cost := s.billing.ReportCost(string(report.ReportType))
	if payload.NoData {
		cost = 0
	}

	score := payload.OverallScore
	report.Status = models.ReportStatusReady
	report.OverallScore = &score
	report.Confidence = payload.Confidence
	report.Summary = payload.Summary
	report.DataJSON = string(data)
	report.HTMLContent = renderReportHTML(report, payload)
	report.CreditCost = cost
	report.GenerationTimeMs = elapsed
	report.UpdatedAt = time.Now().UTC()

	if err := s.repos.Report.Update(ctx, report); err != nil {
		s.logger.Error("failed to persist report", "report_id", report.ID, "error", err)
		return
	}

	s.logger.Info("report ready",
		"report_id", report.ID,
		"report_type", report.ReportType,
		"score", score,
		"confidence", payload.Confidence,
		"duration_ms", elapsed,
	)

	// Charge only after ready. A billing failure here is logged, never
	// surfaced: the report already exists and is returned to the caller.
	if cost > 0 {
		result, err := s.entitlements.Consume(ctx, report.WorkspaceID, report.ReportType, report.ID)
		if err != nil {
			s.logger.Warn("failed to charge credits for ready report",
				"report_id", report.ID,
				"workspace_id", report.WorkspaceID,
				"error", err,
			)
		} else if !result.Success {
			s.logger.Warn("credit charge refused for ready report",
				"report_id", report.ID,
				"workspace_id", report.WorkspaceID,
				"reason", result.Reason,
			)
		}
	}
}

func (s *ReportService) generate(ctx context.Context, report *models.Report, plan *reportPlan) (*reportPayload, error) {
	switch report.ReportType {
	case models.ReportTypeTrackingReadiness:
		return s.generateTracking(ctx, report, plan)
	case models.ReportTypeSpendBaseline:
		return s.generateSpend(ctx, report, plan)
	case models.ReportTypeCompetitorSnapshot:
		return s.generateCompetitor(ctx, plan)
	default:
		return nil, ErrInvalidReportType
	}
}

func (s *ReportService) generateTracking(ctx context.Context, report *models.Report, plan *reportPlan) (*reportPayload, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
	defer cancel()

	snap, err := s.analyzer.Snapshot(callCtx, *report.WebsiteID, plan.request.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze website: %w", err)
	}

	result := scoring.TrackingReadiness(snap)

	insights, err := s.insights.Generate(ctx, snap)
	if err != nil {
		// The template generator never fails, so this only fires with a
		// custom generator
		s.logger.Warn("insight generation failed", "report_id", report.ID, "error", err)
	}

	return &reportPayload{
		Result:   result,
		Snapshot: snap,
		Insights: insights,
	}, nil
}

func (s *ReportService) generateSpend(ctx context.Context, report *models.Report, plan *reportPlan) (*reportPayload, error) {
	days := plan.request.Days
	until := time.Now().UTC()
	since := until.AddDate(0, 0, -days)

	var records []models.SpendRecord
	accountsWithData := 0

	for _, accountID := range plan.accountIDs {
		account, err := s.repos.AdAccount.GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ad account: %w", err)
		}
		if account == nil || account.WorkspaceID != report.WorkspaceID || account.Status != models.AdAccountActive {
			continue
		}

		connector, ok := s.connectors[account.Platform]
		if !ok {
			s.logger.Warn("no connector for platform", "platform", account.Platform)
			continue
		}

		token, err := s.sealer.Open(account.AccessTokenEnc)
		if err != nil {
			s.logger.Warn("failed to unseal ad account token", "account_id", account.ID, "error", err)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
		fetched, err := connector.FetchSpend(callCtx, account.ExternalAccountID, token, since, until)
		cancel()
		if err != nil {
			// One platform failing degrades confidence, not the report
			s.logger.Warn("spend fetch failed",
				"account_id", account.ID,
				"platform", account.Platform,
				"error", err,
			)
			continue
		}

		if len(fetched) > 0 {
			accountsWithData++
		}
		records = append(records, fetched...)
	}

	analysis := scoring.SpendBaseline(scoring.SpendInput{
		Records:  records,
		Accounts: accountsWithData,
		Days:     days,
	})

	return &reportPayload{
		Result: analysis.Result,
		Spend:  &analysis,
	}, nil
}

func (s *ReportService) generateCompetitor(ctx context.Context, plan *reportPlan) (*reportPayload, error) {
	if s.intel == nil {
		return &reportPayload{
			Result: scoring.Result{
				Confidence: models.ConfidenceLow,
				Summary:    "No competitive intelligence source is configured.",
				NoData:     true,
			},
		}, nil
	}

	domain := plan.domain

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
	defer cancel()

	input := scoring.CompetitorInput{Domain: domain}

	overview, err := s.intel.DomainOverview(callCtx, domain)
	if err != nil {
		s.logger.Warn("domain overview fetch failed", "domain", domain, "error", err)
	} else {
		input.Overview = overview
	}

	if organic, err := s.intel.OrganicCompetitors(callCtx, domain, 10); err != nil {
		s.logger.Warn("organic competitor fetch failed", "domain", domain, "error", err)
	} else {
		input.OrganicCompetitors = organic
	}

	if paid, err := s.intel.PaidCompetitors(callCtx, domain, 10); err != nil {
		s.logger.Warn("paid competitor fetch failed", "domain", domain, "error", err)
	} else {
		input.PaidCompetitors = paid
	}

	if copies, err := s.intel.AdCopies(callCtx, domain, 20); err != nil {
		s.logger.Warn("ad copy fetch failed", "domain", domain, "error", err)
	} else {
		input.AdCopies = copies
	}

	var rivals []string
	for i, c := range input.OrganicCompetitors {
		if i == 5 {
			break
		}
		rivals = append(rivals, c.Domain)
	}
	if len(rivals) > 0 {
		if gaps, err := s.intel.KeywordGaps(callCtx, domain, rivals); err != nil {
			s.logger.Warn("keyword gap fetch failed", "domain", domain, "error", err)
		} else {
			input.KeywordGaps = gaps
		}
	}

	analysis := scoring.CompetitorSnapshot(input)

	return &reportPayload{
		Result:     analysis.Result,
		Competitor: &analysis,
	}, nil
}
