package repository

import (
	"context"
	"testing"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

func testSnapshot(id, websiteID string, fetchedAt time.Time) *models.WebsiteSnapshot {
	return &models.WebsiteSnapshot{
		ID:        id,
		WebsiteID: websiteID,
		URL:       "https://example.com",
		Title:     "Example",
		Technologies: map[string][]string{
			"analytics": {"Google Analytics"},
		},
		TrackingPixels: []string{"Facebook Pixel"},
		Industry:       "SaaS",
		KeyTopics:      []string{"marketing"},
		FetchedAt:      fetchedAt,
	}
}

func TestSnapshotRepository_CreateAndGetLatest(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	older := testSnapshot("snap_1", "web_abc", time.Now().UTC().Add(-2*time.Hour).Truncate(time.Second))
	newer := testSnapshot("snap_2", "web_abc", time.Now().UTC().Truncate(time.Second))
	newer.Title = "Example v2"

	if err := repos.Snapshot.Create(ctx, older); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repos.Snapshot.Create(ctx, newer); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Snapshot.GetLatestByWebsiteID(ctx, "web_abc")
	if err != nil {
		t.Fatalf("GetLatestByWebsiteID() error = %v", err)
	}
	if got == nil || got.ID != "snap_2" {
		t.Fatalf("GetLatestByWebsiteID() = %+v, want snap_2", got)
	}
	if got.Title != "Example v2" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Technologies["analytics"]) != 1 || got.Technologies["analytics"][0] != "Google Analytics" {
		t.Errorf("Technologies = %v", got.Technologies)
	}
	if len(got.TrackingPixels) != 1 {
		t.Errorf("TrackingPixels = %v", got.TrackingPixels)
	}
}

func TestSnapshotRepository_GetLatest_NotFound(t *testing.T) {
	repos := setupTestRepos(t)

	got, err := repos.Snapshot.GetLatestByWebsiteID(context.Background(), "web_unknown")
	if err != nil {
		t.Fatalf("GetLatestByWebsiteID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetLatestByWebsiteID() = %+v, want nil", got)
	}
}

func TestSnapshotRepository_DeleteOlderThan(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	old := testSnapshot("snap_old", "web_abc", time.Now().UTC().Add(-48*time.Hour))
	fresh := testSnapshot("snap_fresh", "web_abc", time.Now().UTC())
	if err := repos.Snapshot.Create(ctx, old); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repos.Snapshot.Create(ctx, fresh); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	n, err := repos.Snapshot.DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteOlderThan() = %d, want 1", n)
	}

	got, _ := repos.Snapshot.GetLatestByWebsiteID(ctx, "web_abc")
	if got == nil || got.ID != "snap_fresh" {
		t.Errorf("GetLatestByWebsiteID() = %+v, want snap_fresh surviving", got)
	}
}
