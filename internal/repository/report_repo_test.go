package repository

import (
	"context"
	"testing"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

func testReport(id, workspaceID string, status models.ReportStatus) *models.Report {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Report{
		ID:          id,
		WorkspaceID: workspaceID,
		ReportType:  models.ReportTypeTrackingReadiness,
		InputHash:   "a1b2c3",
		Title:       "Tracking Readiness",
		Status:      status,
		Confidence:  models.ConfidenceLow,
		DataJSON:    "{}",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestReportRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	report := testReport("rpt_1", "ws_1", models.ReportStatusGenerating)
	websiteID := "web_deadbeef"
	report.WebsiteID = &websiteID

	if err := repos.Report.Create(ctx, report); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Report.GetByID(ctx, "rpt_1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() returned nil for existing report")
	}
	if got.ReportType != models.ReportTypeTrackingReadiness {
		t.Errorf("ReportType = %q", got.ReportType)
	}
	if got.WebsiteID == nil || *got.WebsiteID != websiteID {
		t.Errorf("WebsiteID = %v, want %q", got.WebsiteID, websiteID)
	}
	if got.OverallScore != nil {
		t.Errorf("OverallScore = %v, want nil before scoring", got.OverallScore)
	}
}

func TestReportRepository_GetByID_NotFound(t *testing.T) {
	repos := setupTestRepos(t)

	got, err := repos.Report.GetByID(context.Background(), "rpt_missing")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() = %+v, want nil for missing report", got)
	}
}

func TestReportRepository_FindReady(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	ready := testReport("rpt_ready", "ws_1", models.ReportStatusReady)
	failed := testReport("rpt_failed", "ws_1", models.ReportStatusFailed)
	generating := testReport("rpt_gen", "ws_1", models.ReportStatusGenerating)
	for _, r := range []*models.Report{ready, failed, generating} {
		if err := repos.Report.Create(ctx, r); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repos.Report.FindReady(ctx, "ws_1", models.ReportTypeTrackingReadiness, "a1b2c3")
	if err != nil {
		t.Fatalf("FindReady() error = %v", err)
	}
	if got == nil || got.ID != "rpt_ready" {
		t.Fatalf("FindReady() = %+v, want rpt_ready", got)
	}

	// Different hash, different workspace, different type all miss
	if got, _ := repos.Report.FindReady(ctx, "ws_1", models.ReportTypeTrackingReadiness, "other"); got != nil {
		t.Errorf("FindReady() with other hash = %+v, want nil", got)
	}
	if got, _ := repos.Report.FindReady(ctx, "ws_2", models.ReportTypeTrackingReadiness, "a1b2c3"); got != nil {
		t.Errorf("FindReady() with other workspace = %+v, want nil", got)
	}
	if got, _ := repos.Report.FindReady(ctx, "ws_1", models.ReportTypeSpendBaseline, "a1b2c3"); got != nil {
		t.Errorf("FindReady() with other type = %+v, want nil", got)
	}
}

func TestReportRepository_FindReady_IgnoresFailed(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	failed := testReport("rpt_failed", "ws_1", models.ReportStatusFailed)
	if err := repos.Report.Create(ctx, failed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Report.FindReady(ctx, "ws_1", models.ReportTypeTrackingReadiness, "a1b2c3")
	if err != nil {
		t.Fatalf("FindReady() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindReady() matched a failed report: %+v", got)
	}
}

func TestReportRepository_FindGenerating(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	generating := testReport("rpt_gen", "ws_1", models.ReportStatusGenerating)
	if err := repos.Report.Create(ctx, generating); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Report.FindGenerating(ctx, "ws_1", models.ReportTypeTrackingReadiness, "a1b2c3")
	if err != nil {
		t.Fatalf("FindGenerating() error = %v", err)
	}
	if got == nil || got.ID != "rpt_gen" {
		t.Fatalf("FindGenerating() = %+v, want rpt_gen", got)
	}
}

func TestReportRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	report := testReport("rpt_1", "ws_1", models.ReportStatusGenerating)
	if err := repos.Report.Create(ctx, report); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	score := 85
	report.Status = models.ReportStatusReady
	report.OverallScore = &score
	report.Confidence = models.ConfidenceHigh
	report.Summary = "Excellent tracking setup"
	report.HTMLContent = "<html><body>report</body></html>"
	report.CreditCost = 1
	report.GenerationTimeMs = 1234

	if err := repos.Report.Update(ctx, report); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repos.Report.GetByID(ctx, "rpt_1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.ReportStatusReady {
		t.Errorf("Status = %q, want ready", got.Status)
	}
	if got.OverallScore == nil || *got.OverallScore != 85 {
		t.Errorf("OverallScore = %v, want 85", got.OverallScore)
	}
	if got.HTMLContent == "" {
		t.Error("HTMLContent not persisted")
	}
	if got.CreditCost != 1 {
		t.Errorf("CreditCost = %d, want 1", got.CreditCost)
	}
}

func TestReportRepository_ListByWorkspace(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	InsertTestWorkspace(t, db, "ws_2", "free", 10)
	ctx := context.Background()
	for _, id := range []string{"rpt_1", "rpt_2", "rpt_3"} {
		r := testReport(id, "ws_1", models.ReportStatusReady)
		if err := repos.Report.Create(ctx, r); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	other := testReport("rpt_other", "ws_2", models.ReportStatusReady)
	if err := repos.Report.Create(ctx, other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	reports, err := repos.Report.ListByWorkspace(ctx, "ws_1", 10, 0)
	if err != nil {
		t.Fatalf("ListByWorkspace() error = %v", err)
	}
	if len(reports) != 3 {
		t.Errorf("ListByWorkspace() = %d reports, want 3", len(reports))
	}

	limited, err := repos.Report.ListByWorkspace(ctx, "ws_1", 2, 0)
	if err != nil {
		t.Fatalf("ListByWorkspace() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListByWorkspace(limit=2) = %d reports, want 2", len(limited))
	}
}

func TestReportRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	report := testReport("rpt_1", "ws_1", models.ReportStatusReady)
	if err := repos.Report.Create(ctx, report); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repos.Report.Delete(ctx, "rpt_1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := repos.Report.GetByID(ctx, "rpt_1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() after delete = %+v, want nil", got)
	}
}

func TestReportRepository_MarkStaleGeneratingFailed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteReportRepository(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	ctx := context.Background()

	// One stale generating report, one fresh one, one already ready
	stale := testReport("rpt_stale", "ws_1", models.ReportStatusGenerating)
	stale.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	fresh := testReport("rpt_fresh", "ws_1", models.ReportStatusGenerating)
	ready := testReport("rpt_ready", "ws_1", models.ReportStatusReady)
	ready.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	for _, r := range []*models.Report{stale, fresh, ready} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	n, err := repo.MarkStaleGeneratingFailed(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("MarkStaleGeneratingFailed() error = %v", err)
	}
	if n != 1 {
		t.Errorf("MarkStaleGeneratingFailed() = %d, want 1", n)
	}

	got, _ := repo.GetByID(ctx, "rpt_stale")
	if got.Status != models.ReportStatusFailed {
		t.Errorf("stale report status = %q, want failed", got.Status)
	}

	got, _ = repo.GetByID(ctx, "rpt_fresh")
	if got.Status != models.ReportStatusGenerating {
		t.Errorf("fresh report status = %q, want generating", got.Status)
	}

	got, _ = repo.GetByID(ctx, "rpt_ready")
	if got.Status != models.ReportStatusReady {
		t.Errorf("ready report status = %q, want ready untouched", got.Status)
	}
}

func TestReportRepository_DeleteByWorkspace(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	InsertTestWorkspace(t, db, "ws_1", "free", 10)
	InsertTestWorkspace(t, db, "ws_2", "free", 10)
	ctx := context.Background()

	for i, id := range []string{"rpt_1", "rpt_2"} {
		r := testReport(id, "ws_1", models.ReportStatusReady)
		r.InputHash = r.InputHash + string(rune('a'+i))
		if err := repos.Report.Create(ctx, r); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	if err := repos.Report.Create(ctx, testReport("rpt_other", "ws_2", models.ReportStatusReady)); err != nil {
		t.Fatalf("Create(rpt_other) error = %v", err)
	}

	deleted, err := repos.Report.DeleteByWorkspace(ctx, "ws_1")
	if err != nil {
		t.Fatalf("DeleteByWorkspace() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteByWorkspace() = %d, want 2", deleted)
	}

	got, err := repos.Report.GetByID(ctx, "rpt_other")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Error("other workspace's report was deleted")
	}
}
