package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// SQLiteReportRepository implements ReportRepository for SQLite.
type SQLiteReportRepository struct {
	db *sql.DB
}

// NewSQLiteReportRepository creates a new SQLite report repository.
func NewSQLiteReportRepository(db *sql.DB) *SQLiteReportRepository {
	return &SQLiteReportRepository{db: db}
}

const reportColumns = `id, workspace_id, report_type, input_hash, website_id, title, summary,
	status, overall_score, confidence, data_json, html_content, credit_cost,
	generation_time_ms, created_at, updated_at`

func (r *SQLiteReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.WorkspaceID,
		report.ReportType,
		report.InputHash,
		nullStringPtr(report.WebsiteID),
		report.Title,
		report.Summary,
		report.Status,
		nullIntPtr(report.OverallScore),
		report.Confidence,
		report.DataJSON,
		nullString(report.HTMLContent),
		report.CreditCost,
		report.GenerationTimeMs,
		report.CreatedAt.Format(time.RFC3339),
		report.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *SQLiteReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = ?`
	return r.scanReport(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteReportRepository) FindReady(ctx context.Context, workspaceID string, reportType models.ReportType, inputHash string) (*models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE workspace_id = ? AND report_type = ? AND input_hash = ? AND status = 'ready'
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanReport(r.db.QueryRowContext(ctx, query, workspaceID, reportType, inputHash))
}

func (r *SQLiteReportRepository) FindGenerating(ctx context.Context, workspaceID string, reportType models.ReportType, inputHash string) (*models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE workspace_id = ? AND report_type = ? AND input_hash = ? AND status = 'generating'
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanReport(r.db.QueryRowContext(ctx, query, workspaceID, reportType, inputHash))
}

func (r *SQLiteReportRepository) Update(ctx context.Context, report *models.Report) error {
	query := `
		UPDATE reports SET title = ?, summary = ?, status = ?, overall_score = ?,
			confidence = ?, data_json = ?, html_content = ?, credit_cost = ?,
			generation_time_ms = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		report.Title,
		report.Summary,
		report.Status,
		nullIntPtr(report.OverallScore),
		report.Confidence,
		report.DataJSON,
		nullString(report.HTMLContent),
		report.CreditCost,
		report.GenerationTimeMs,
		time.Now().UTC().Format(time.RFC3339),
		report.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return nil
}

func (r *SQLiteReportRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports WHERE workspace_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report, err := r.scanReportFromRows(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *SQLiteReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

func (r *SQLiteReportRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE workspace_id = ?", workspaceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteReportRepository) MarkStaleGeneratingFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET status = 'failed', summary = 'Report generation timed out', updated_at = ?
		WHERE status = 'generating' AND updated_at < ?
	`, time.Now().UTC().Format(time.RFC3339), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale reports: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteReportRepository) scanReport(row *sql.Row) (*models.Report, error) {
	var report models.Report
	var websiteID, htmlContent sql.NullString
	var overallScore sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&report.ID, &report.WorkspaceID, &report.ReportType, &report.InputHash,
		&websiteID, &report.Title, &report.Summary, &report.Status,
		&overallScore, &report.Confidence, &report.DataJSON, &htmlContent,
		&report.CreditCost, &report.GenerationTimeMs, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	applyReportNullables(&report, websiteID, htmlContent, overallScore)
	report.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	report.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &report, nil
}

func (r *SQLiteReportRepository) scanReportFromRows(rows *sql.Rows) (*models.Report, error) {
	var report models.Report
	var websiteID, htmlContent sql.NullString
	var overallScore sql.NullInt64
	var createdAt, updatedAt string

	err := rows.Scan(
		&report.ID, &report.WorkspaceID, &report.ReportType, &report.InputHash,
		&websiteID, &report.Title, &report.Summary, &report.Status,
		&overallScore, &report.Confidence, &report.DataJSON, &htmlContent,
		&report.CreditCost, &report.GenerationTimeMs, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	applyReportNullables(&report, websiteID, htmlContent, overallScore)
	report.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	report.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &report, nil
}

func applyReportNullables(report *models.Report, websiteID, htmlContent sql.NullString, overallScore sql.NullInt64) {
	if websiteID.Valid {
		report.WebsiteID = &websiteID.String
	}
	if htmlContent.Valid {
		report.HTMLContent = htmlContent.String
	}
	if overallScore.Valid {
		score := int(overallScore.Int64)
		report.OverallScore = &score
	}
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringPtr converts a nil string pointer to a SQL NULL.
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullIntPtr converts a nil int pointer to a SQL NULL.
func nullIntPtr(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
