package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

// EntitlementService owns the credit ledger: plan entitlements, monthly
// resets, and credit consumption. All debits funnel through Consume so a
// workspace balance can never go negative.
type EntitlementService struct {
	repos   *repository.Repositories
	billing *config.BillingConfig
	logger  *slog.Logger

	// Per-workspace locks serialize consume attempts and monthly resets
	// so the check and debit of one request cannot interleave with
	// another's. Callers of currentWorkspace must hold the lock.
	locks sync.Map
}

// NewEntitlementService creates a new entitlement service.
func NewEntitlementService(repos *repository.Repositories, billing *config.BillingConfig, logger *slog.Logger) *EntitlementService {
	return &EntitlementService{
		repos:   repos,
		billing: billing,
		logger:  logger,
	}
}

// newID builds a prefixed, time-ordered identifier.
func newID(prefix string) string {
	return prefix + strings.ToLower(ulid.Make().String())
}

// GetEntitlements returns the workspace's current capabilities. Unknown
// workspaces are lazily created on the FREE plan; a due monthly reset is
// applied before the view is built.
func (s *EntitlementService) GetEntitlements(ctx context.Context, workspaceID string) (*models.Entitlements, error) {
	lock := s.workspaceLock(workspaceID)
	lock.Lock()
	ws, err := s.currentWorkspace(ctx, workspaceID)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	return &models.Entitlements{
		WorkspaceID:               ws.ID,
		Plan:                      ws.Plan,
		ReportCredits:             ws.ReportCredits,
		ReportsGeneratedThisMonth: ws.ReportsGeneratedThisMonth,
		CanPublish:                ws.CanPublish,
		CreditsResetDate:          ws.CreditsResetDate,
	}, nil
}

// CheckAccess reports whether the workspace may generate a report of the
// given type right now, without consuming anything.
func (s *EntitlementService) CheckAccess(ctx context.Context, workspaceID string, reportType models.ReportType) (*models.AccessCheck, error) {
	if !s.billing.IsValidReportType(string(reportType)) {
		return nil, ErrInvalidReportType
	}

	lock := s.workspaceLock(workspaceID)
	lock.Lock()
	ws, err := s.currentWorkspace(ctx, workspaceID)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	return s.accessCheck(ws, reportType), nil
}

// Consume debits the credit cost of one report and records the paired
// billing event. The refusal reason mirrors CheckAccess.
func (s *EntitlementService) Consume(ctx context.Context, workspaceID string, reportType models.ReportType, reportID string) (*models.ConsumeResult, error) {
	if !s.billing.IsValidReportType(string(reportType)) {
		return nil, ErrInvalidReportType
	}

	lock := s.workspaceLock(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	ws, err := s.currentWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	cost := s.billing.ReportCost(string(reportType))
	check := s.accessCheck(ws, reportType)
	if !check.CanGenerate {
		return &models.ConsumeResult{
			Success:          false,
			CreditsRemaining: ws.ReportCredits,
			Reason:           check.LimitReason,
			UpgradeRequired:  check.UpgradeRequired,
		}, nil
	}

	// The guarded UPDATE is the final arbiter: a concurrent debit that
	// slipped past the lock window (another process) still cannot
	// overdraw.
	ok, err := s.repos.Workspace.ConsumeCredits(ctx, workspaceID, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to consume credits: %w", err)
	}
	if !ok {
		return &models.ConsumeResult{
			Success:          false,
			CreditsRemaining: ws.ReportCredits,
			Reason:           "insufficient credits",
			UpgradeRequired:  ws.Plan == config.PlanFree,
		}, nil
	}

	event := &models.BillingEvent{
		ID:              newID("evt_"),
		WorkspaceID:     workspaceID,
		EventType:       models.EventReportGenerated,
		CreditsConsumed: cost,
		ReportID:        &reportID,
		Processed:       true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repos.BillingEvent.Create(ctx, event); err != nil {
		// The debit already happened; the ledger entry is best-effort
		s.logger.Error("failed to record consumption event",
			"workspace_id", workspaceID,
			"report_id", reportID,
			"error", err,
		)
	}

	return &models.ConsumeResult{
		Success:          true,
		CreditsConsumed:  cost,
		CreditsRemaining: ws.ReportCredits - cost,
	}, nil
}

// currentWorkspace loads the workspace, creating it on the FREE plan if
// unknown and applying a due monthly reset.
func (s *EntitlementService) currentWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	ws, err := s.repos.Workspace.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	if ws == nil {
		ws = s.newFreeWorkspace(workspaceID)
		if err := s.repos.Workspace.Create(ctx, ws); err != nil {
			return nil, fmt.Errorf("failed to create workspace: %w", err)
		}
		s.logger.Info("created workspace on FREE plan", "workspace_id", workspaceID)
		return ws, nil
	}

	if time.Now().UTC().After(ws.CreditsResetDate) {
		if err := s.applyMonthlyReset(ctx, ws); err != nil {
			return nil, err
		}
	}

	return ws, nil
}

// applyMonthlyReset restores the plan's monthly allocation and clears the
// report counter. A pending downgrade lands here: the workspace drops to
// FREE before the new allocation is computed. The reset is a guarded
// UPDATE keyed on the reset date seen at load, so a competing reset from
// another process applies once.
func (s *EntitlementService) applyMonthlyReset(ctx context.Context, ws *models.Workspace) error {
	seenResetDate := ws.CreditsResetDate

	if ws.PendingDowngrade {
		s.logger.Info("applying pending downgrade",
			"workspace_id", ws.ID,
			"from_plan", ws.Plan,
		)
		ws.Plan = config.PlanFree
		ws.CanPublish = false
		ws.PendingDowngrade = false
		ws.StripeSubscriptionID = nil
		ws.SubscriptionStatus = ""
		if err := s.repos.Workspace.UpdateSubscriptionState(ctx, ws); err != nil {
			return fmt.Errorf("failed to apply pending downgrade: %w", err)
		}
	}

	plan := s.billing.GetPlan(ws.Plan)
	newResetDate := time.Now().UTC().AddDate(0, 0, config.CreditResetPeriodDays)

	applied, err := s.repos.Workspace.ResetAllocation(ctx, ws.ID, plan.MonthlyCredits, newResetDate, seenResetDate)
	if err != nil {
		return fmt.Errorf("failed to apply monthly reset: %w", err)
	}
	if !applied {
		// Another process reset this workspace first; adopt its row.
		fresh, err := s.repos.Workspace.GetByID(ctx, ws.ID)
		if err != nil {
			return fmt.Errorf("failed to reload workspace: %w", err)
		}
		if fresh != nil {
			*ws = *fresh
		}
		return nil
	}

	ws.ReportCredits = plan.MonthlyCredits
	ws.ReportsGeneratedThisMonth = 0
	ws.CreditsResetDate = newResetDate

	s.logger.Info("applied monthly credit reset",
		"workspace_id", ws.ID,
		"plan", ws.Plan,
		"credits", ws.ReportCredits,
	)
	return nil
}

func (s *EntitlementService) accessCheck(ws *models.Workspace, reportType models.ReportType) *models.AccessCheck {
	cost := s.billing.ReportCost(string(reportType))
	plan := s.billing.GetPlan(ws.Plan)

	check := &models.AccessCheck{
		CanGenerate:      true,
		HasCredits:       ws.ReportCredits >= cost,
		CreditsAvailable: ws.ReportCredits,
		CreditsNeeded:    cost,
	}

	// The plan cap outranks the balance in the reported reason: buying a
	// pack cannot fix a capped FREE workspace, only upgrading can.
	if plan.MonthlyReports > 0 && ws.ReportsGeneratedThisMonth >= plan.MonthlyReports {
		check.CanGenerate = false
		check.LimitReason = "monthly report limit reached"
		check.UpgradeRequired = true
		return check
	}

	if !check.HasCredits {
		check.CanGenerate = false
		check.LimitReason = "insufficient credits"
		check.UpgradeRequired = ws.Plan == config.PlanFree
	}

	return check
}

func (s *EntitlementService) workspaceLock(workspaceID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(workspaceID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *EntitlementService) newFreeWorkspace(workspaceID string) *models.Workspace {
	now := time.Now().UTC()
	plan := s.billing.GetPlan(config.PlanFree)
	return &models.Workspace{
		ID:               workspaceID,
		Plan:             plan.Name,
		ReportCredits:    plan.MonthlyCredits,
		CreditsResetDate: now.AddDate(0, 0, config.CreditResetPeriodDays),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
