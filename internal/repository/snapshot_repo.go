package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// SQLiteSnapshotRepository implements SnapshotRepository for SQLite.
type SQLiteSnapshotRepository struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepository creates a new SQLite snapshot repository.
func NewSQLiteSnapshotRepository(db *sql.DB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db}
}

func (r *SQLiteSnapshotRepository) Create(ctx context.Context, snapshot *models.WebsiteSnapshot) error {
	technologies, err := json.Marshal(snapshot.Technologies)
	if err != nil {
		return fmt.Errorf("failed to marshal technologies: %w", err)
	}
	pixels, err := json.Marshal(snapshot.TrackingPixels)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking pixels: %w", err)
	}
	topics, err := json.Marshal(snapshot.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal key topics: %w", err)
	}
	props, err := json.Marshal(snapshot.ValuePropositions)
	if err != nil {
		return fmt.Errorf("failed to marshal value propositions: %w", err)
	}

	query := `
		INSERT INTO website_snapshots (id, website_id, url, title, technologies_json,
			tracking_pixels_json, industry, business_model, key_topics_json,
			value_propositions_json, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.WebsiteID,
		snapshot.URL,
		snapshot.Title,
		string(technologies),
		string(pixels),
		snapshot.Industry,
		snapshot.BusinessModel,
		string(topics),
		string(props),
		snapshot.FetchedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteSnapshotRepository) GetLatestByWebsiteID(ctx context.Context, websiteID string) (*models.WebsiteSnapshot, error) {
	query := `
		SELECT id, website_id, url, title, technologies_json, tracking_pixels_json,
			industry, business_model, key_topics_json, value_propositions_json, fetched_at
		FROM website_snapshots WHERE website_id = ?
		ORDER BY fetched_at DESC LIMIT 1
	`

	var snapshot models.WebsiteSnapshot
	var technologies, pixels, topics, props, fetchedAt string

	err := r.db.QueryRowContext(ctx, query, websiteID).Scan(
		&snapshot.ID, &snapshot.WebsiteID, &snapshot.URL, &snapshot.Title,
		&technologies, &pixels, &snapshot.Industry, &snapshot.BusinessModel,
		&topics, &props, &fetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(technologies), &snapshot.Technologies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal technologies: %w", err)
	}
	if err := json.Unmarshal([]byte(pixels), &snapshot.TrackingPixels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracking pixels: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &snapshot.KeyTopics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key topics: %w", err)
	}
	if err := json.Unmarshal([]byte(props), &snapshot.ValuePropositions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value propositions: %w", err)
	}
	snapshot.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
	return &snapshot, nil
}

func (r *SQLiteSnapshotRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM website_snapshots WHERE fetched_at < ?",
		before.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}
	return result.RowsAffected()
}
