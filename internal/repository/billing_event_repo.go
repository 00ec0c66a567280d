package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// ErrDuplicateSourceEvent is returned when a billing event with the same
// source event id was already recorded. Webhook replays hit this path.
var ErrDuplicateSourceEvent = errors.New("billing event with this source event id already exists")

// SQLiteBillingEventRepository implements BillingEventRepository for SQLite.
type SQLiteBillingEventRepository struct {
	db *sql.DB
}

// NewSQLiteBillingEventRepository creates a new SQLite billing event repository.
func NewSQLiteBillingEventRepository(db *sql.DB) *SQLiteBillingEventRepository {
	return &SQLiteBillingEventRepository{db: db}
}

const billingEventColumns = `id, workspace_id, event_type, credits_added, credits_consumed,
	amount_usd_cents, product_name, plan_changed_to, report_id, source_event_id,
	processed, created_at`

func (r *SQLiteBillingEventRepository) Create(ctx context.Context, event *models.BillingEvent) error {
	query := `
		INSERT INTO billing_events (` + billingEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.WorkspaceID,
		event.EventType,
		event.CreditsAdded,
		event.CreditsConsumed,
		event.AmountUSDCents,
		event.ProductName,
		nullStringPtr(event.PlanChangedTo),
		nullStringPtr(event.ReportID),
		nullStringPtr(event.SourceEventID),
		boolToInt(event.Processed),
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSourceEvent
		}
		return fmt.Errorf("failed to create billing event: %w", err)
	}
	return nil
}

func (r *SQLiteBillingEventRepository) GetBySourceEventID(ctx context.Context, sourceEventID string) (*models.BillingEvent, error) {
	query := `SELECT ` + billingEventColumns + ` FROM billing_events WHERE source_event_id = ?`
	return r.scanEvent(r.db.QueryRowContext(ctx, query, sourceEventID))
}

func (r *SQLiteBillingEventRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*models.BillingEvent, error) {
	query := `
		SELECT ` + billingEventColumns + `
		FROM billing_events WHERE workspace_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query billing events: %w", err)
	}
	defer rows.Close()

	var events []*models.BillingEvent
	for rows.Next() {
		var event models.BillingEvent
		var planChangedTo, reportID, sourceEventID sql.NullString
		var processed int
		var createdAt string

		if err := rows.Scan(
			&event.ID, &event.WorkspaceID, &event.EventType, &event.CreditsAdded,
			&event.CreditsConsumed, &event.AmountUSDCents, &event.ProductName,
			&planChangedTo, &reportID, &sourceEventID, &processed, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan billing event: %w", err)
		}

		applyEventNullables(&event, planChangedTo, reportID, sourceEventID)
		event.Processed = processed != 0
		event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, &event)
	}
	return events, rows.Err()
}

func (r *SQLiteBillingEventRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM billing_events WHERE workspace_id = ?", workspaceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete billing events: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteBillingEventRepository) scanEvent(row *sql.Row) (*models.BillingEvent, error) {
	var event models.BillingEvent
	var planChangedTo, reportID, sourceEventID sql.NullString
	var processed int
	var createdAt string

	err := row.Scan(
		&event.ID, &event.WorkspaceID, &event.EventType, &event.CreditsAdded,
		&event.CreditsConsumed, &event.AmountUSDCents, &event.ProductName,
		&planChangedTo, &reportID, &sourceEventID, &processed, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan billing event: %w", err)
	}

	applyEventNullables(&event, planChangedTo, reportID, sourceEventID)
	event.Processed = processed != 0
	event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &event, nil
}

func applyEventNullables(event *models.BillingEvent, planChangedTo, reportID, sourceEventID sql.NullString) {
	if planChangedTo.Valid {
		event.PlanChangedTo = &planChangedTo.String
	}
	if reportID.Valid {
		event.ReportID = &reportID.String
	}
	if sourceEventID.Valid {
		event.SourceEventID = &sourceEventID.String
	}
}

// isUniqueViolation detects a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT")
}
