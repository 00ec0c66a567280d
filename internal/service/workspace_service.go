package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

// WorkspaceService handles workspace lifecycle events from the identity
// provider: provisioning on creation and full data removal on deletion.
type WorkspaceService struct {
	repos   *repository.Repositories
	billing *config.BillingConfig
	logger  *slog.Logger
}

// NewWorkspaceService creates a new workspace lifecycle service.
func NewWorkspaceService(repos *repository.Repositories, billing *config.BillingConfig, logger *slog.Logger) *WorkspaceService {
	return &WorkspaceService{
		repos:   repos,
		billing: billing,
		logger:  logger,
	}
}

// Provision creates the workspace on the FREE plan. Already-known
// workspaces are left untouched so a replayed event cannot reset a paid
// plan.
func (s *WorkspaceService) Provision(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	existing, err := s.repos.Workspace.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	plan := s.billing.GetPlan(config.PlanFree)
	ws := &models.Workspace{
		ID:               workspaceID,
		Plan:             plan.Name,
		ReportCredits:    plan.MonthlyCredits,
		CreditsResetDate: now.AddDate(0, 0, config.CreditResetPeriodDays),
		CanPublish:       plan.CanPublish,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repos.Workspace.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	s.logger.Info("workspace provisioned",
		"workspace_id", workspaceID,
		"plan", ws.Plan,
	)
	return ws, nil
}

// Purge removes the workspace and everything it owns. Idempotent: a
// second delivery finds nothing to remove and succeeds.
func (s *WorkspaceService) Purge(ctx context.Context, workspaceID string) error {
	reports, err := s.repos.Report.DeleteByWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}
	accounts, err := s.repos.AdAccount.DeleteByWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete ad accounts: %w", err)
	}
	events, err := s.repos.BillingEvent.DeleteByWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete billing events: %w", err)
	}
	if err := s.repos.Workspace.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	s.logger.Info("workspace purged",
		"workspace_id", workspaceID,
		"reports_deleted", reports,
		"ad_accounts_deleted", accounts,
		"billing_events_deleted", events,
	)
	return nil
}
