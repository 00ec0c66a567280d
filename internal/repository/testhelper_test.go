package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/synterhq/synter-api/internal/database/migrations"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// InsertTestWorkspace is a helper to insert a workspace directly.
func InsertTestWorkspace(t *testing.T, db *sql.DB, id, plan string, credits int) {
	t.Helper()
	query := `
		INSERT INTO workspaces (id, plan, report_credits, reports_generated_this_month,
			credits_reset_date, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, datetime('now'), datetime('now'))
	`
	resetDate := time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339)
	if _, err := db.Exec(query, id, plan, credits, resetDate); err != nil {
		t.Fatalf("failed to insert test workspace: %v", err)
	}
}

// InsertTestReport is a helper to insert a report directly.
func InsertTestReport(t *testing.T, db *sql.DB, id, workspaceID, reportType, inputHash, status string) {
	t.Helper()
	query := `
		INSERT INTO reports (id, workspace_id, report_type, input_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, workspaceID, reportType, inputHash, status); err != nil {
		t.Fatalf("failed to insert test report: %v", err)
	}
}

// InsertTestBillingEvent is a helper to insert a billing event directly.
func InsertTestBillingEvent(t *testing.T, db *sql.DB, id, workspaceID, eventType, sourceEventID string) {
	t.Helper()
	query := `
		INSERT INTO billing_events (id, workspace_id, event_type, source_event_id, created_at)
		VALUES (?, ?, ?, ?, datetime('now'))
	`
	var source any
	if sourceEventID != "" {
		source = sourceEventID
	}
	if _, err := db.Exec(query, id, workspaceID, eventType, source); err != nil {
		t.Fatalf("failed to insert test billing event: %v", err)
	}
}
