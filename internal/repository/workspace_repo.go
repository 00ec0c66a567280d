package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// SQLiteWorkspaceRepository implements WorkspaceRepository for SQLite.
type SQLiteWorkspaceRepository struct {
	db *sql.DB
}

// NewSQLiteWorkspaceRepository creates a new SQLite workspace repository.
func NewSQLiteWorkspaceRepository(db *sql.DB) *SQLiteWorkspaceRepository {
	return &SQLiteWorkspaceRepository{db: db}
}

const workspaceColumns = `id, plan, report_credits, reports_generated_this_month,
	credits_reset_date, can_publish, stripe_customer_id, stripe_subscription_id,
	subscription_status, pending_downgrade, created_at, updated_at`

func (r *SQLiteWorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) error {
	query := `
		INSERT INTO workspaces (` + workspaceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		ws.ID,
		ws.Plan,
		ws.ReportCredits,
		ws.ReportsGeneratedThisMonth,
		ws.CreditsResetDate.Format(time.RFC3339),
		boolToInt(ws.CanPublish),
		nullStringPtr(ws.StripeCustomerID),
		nullStringPtr(ws.StripeSubscriptionID),
		nullString(ws.SubscriptionStatus),
		boolToInt(ws.PendingDowngrade),
		ws.CreatedAt.Format(time.RFC3339),
		ws.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

func (r *SQLiteWorkspaceRepository) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = ?`
	return r.scanWorkspace(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteWorkspaceRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE stripe_customer_id = ?`
	return r.scanWorkspace(r.db.QueryRowContext(ctx, query, customerID))
}

func (r *SQLiteWorkspaceRepository) Update(ctx context.Context, ws *models.Workspace) error {
	query := `
		UPDATE workspaces SET plan = ?, report_credits = ?, reports_generated_this_month = ?,
			credits_reset_date = ?, can_publish = ?, stripe_customer_id = ?,
			stripe_subscription_id = ?, subscription_status = ?, pending_downgrade = ?,
			updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		ws.Plan,
		ws.ReportCredits,
		ws.ReportsGeneratedThisMonth,
		ws.CreditsResetDate.Format(time.RFC3339),
		boolToInt(ws.CanPublish),
		nullStringPtr(ws.StripeCustomerID),
		nullStringPtr(ws.StripeSubscriptionID),
		nullString(ws.SubscriptionStatus),
		boolToInt(ws.PendingDowngrade),
		time.Now().UTC().Format(time.RFC3339),
		ws.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	return nil
}

// ConsumeCredits debits in a single guarded UPDATE so two concurrent
// consumers can never drive the balance below zero.
func (r *SQLiteWorkspaceRepository) ConsumeCredits(ctx context.Context, workspaceID string, credits int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workspaces
		SET report_credits = report_credits - ?,
			reports_generated_this_month = reports_generated_this_month + 1,
			updated_at = ?
		WHERE id = ? AND report_credits >= ?
	`, credits, time.Now().UTC().Format(time.RFC3339), workspaceID, credits)
	if err != nil {
		return false, fmt.Errorf("failed to consume credits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLiteWorkspaceRepository) AddCredits(ctx context.Context, workspaceID string, credits int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workspaces
		SET report_credits = report_credits + ?, updated_at = ?
		WHERE id = ?
	`, credits, time.Now().UTC().Format(time.RFC3339), workspaceID)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workspace %s not found", workspaceID)
	}
	return nil
}

func (r *SQLiteWorkspaceRepository) SetStripeCustomerID(ctx context.Context, workspaceID, customerID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workspaces
		SET stripe_customer_id = ?, updated_at = ?
		WHERE id = ?
	`, customerID, time.Now().UTC().Format(time.RFC3339), workspaceID)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workspace %s not found", workspaceID)
	}
	return nil
}

func (r *SQLiteWorkspaceRepository) UpdateSubscriptionState(ctx context.Context, ws *models.Workspace) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE workspaces
		SET plan = ?, can_publish = ?, stripe_subscription_id = ?,
			subscription_status = ?, pending_downgrade = ?, updated_at = ?
		WHERE id = ?
	`,
		ws.Plan,
		boolToInt(ws.CanPublish),
		nullStringPtr(ws.StripeSubscriptionID),
		nullString(ws.SubscriptionStatus),
		boolToInt(ws.PendingDowngrade),
		time.Now().UTC().Format(time.RFC3339),
		ws.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription state: %w", err)
	}
	return nil
}

// ResetAllocation sets the fresh allocation only when the stored reset
// date still matches the one the caller loaded, so two overlapping
// resets apply once.
func (r *SQLiteWorkspaceRepository) ResetAllocation(ctx context.Context, workspaceID string, credits int, resetDate, seenResetDate time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workspaces
		SET report_credits = ?, reports_generated_this_month = 0,
			credits_reset_date = ?, updated_at = ?
		WHERE id = ? AND credits_reset_date = ?
	`,
		credits,
		resetDate.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		workspaceID,
		seenResetDate.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("failed to reset allocation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLiteWorkspaceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM workspaces WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

func (r *SQLiteWorkspaceRepository) scanWorkspace(row *sql.Row) (*models.Workspace, error) {
	var ws models.Workspace
	var resetDate, createdAt, updatedAt string
	var canPublish, pendingDowngrade int
	var stripeCustomerID, stripeSubscriptionID, subscriptionStatus sql.NullString

	err := row.Scan(
		&ws.ID, &ws.Plan, &ws.ReportCredits, &ws.ReportsGeneratedThisMonth,
		&resetDate, &canPublish, &stripeCustomerID, &stripeSubscriptionID,
		&subscriptionStatus, &pendingDowngrade, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}

	ws.CanPublish = canPublish != 0
	ws.PendingDowngrade = pendingDowngrade != 0
	if stripeCustomerID.Valid {
		ws.StripeCustomerID = &stripeCustomerID.String
	}
	if stripeSubscriptionID.Valid {
		ws.StripeSubscriptionID = &stripeSubscriptionID.String
	}
	if subscriptionStatus.Valid {
		ws.SubscriptionStatus = subscriptionStatus.String
	}
	ws.CreditsResetDate, _ = time.Parse(time.RFC3339, resetDate)
	ws.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	ws.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &ws, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
