// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// ReportRepository defines methods for report data access.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	// FindReady returns the newest ready report matching the workspace,
	// type, and input hash, or nil when none exists. Failed and
	// still-generating reports never match.
	FindReady(ctx context.Context, workspaceID string, reportType models.ReportType, inputHash string) (*models.Report, error)
	// FindGenerating returns an in-flight report for the same inputs so a
	// second request can attach to it instead of starting a duplicate run.
	FindGenerating(ctx context.Context, workspaceID string, reportType models.ReportType, inputHash string) (*models.Report, error)
	Update(ctx context.Context, report *models.Report) error
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*models.Report, error)
	Delete(ctx context.Context, id string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
	// MarkStaleGeneratingFailed fails reports stuck in generating longer
	// than maxAge. Returns the number of reports failed.
	MarkStaleGeneratingFailed(ctx context.Context, maxAge time.Duration) (int64, error)
}

// WorkspaceRepository defines methods for workspace ledger access.
type WorkspaceRepository interface {
	Create(ctx context.Context, ws *models.Workspace) error
	GetByID(ctx context.Context, id string) (*models.Workspace, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Workspace, error)
	Update(ctx context.Context, ws *models.Workspace) error
	// ConsumeCredits atomically debits credits and bumps the monthly
	// report counter, guarded so the balance never goes negative.
	// Returns false when the workspace lacks sufficient credits.
	ConsumeCredits(ctx context.Context, workspaceID string, credits int) (bool, error)
	// AddCredits atomically credits the workspace balance.
	AddCredits(ctx context.Context, workspaceID string, credits int) error
	// SetStripeCustomerID links the workspace to its Stripe customer
	// without touching the ledger columns.
	SetStripeCustomerID(ctx context.Context, workspaceID, customerID string) error
	// UpdateSubscriptionState writes the subscription mirror columns
	// (plan, can_publish, stripe_subscription_id, subscription_status,
	// pending_downgrade). The credit balance and monthly counter are
	// never written here.
	UpdateSubscriptionState(ctx context.Context, ws *models.Workspace) error
	// ResetAllocation restores the monthly allocation in one UPDATE
	// guarded on the reset date seen at load. Returns false when a
	// competing reset already advanced the date.
	ResetAllocation(ctx context.Context, workspaceID string, credits int, resetDate, seenResetDate time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

// BillingEventRepository defines methods for the append-only billing log.
type BillingEventRepository interface {
	// Create appends an event. Returns ErrDuplicateSourceEvent when an
	// event with the same source event id was already recorded.
	Create(ctx context.Context, event *models.BillingEvent) error
	GetBySourceEventID(ctx context.Context, sourceEventID string) (*models.BillingEvent, error)
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*models.BillingEvent, error)
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
}

// AdAccountRepository defines methods for connected ad account access.
type AdAccountRepository interface {
	// Upsert inserts or refreshes the connection keyed by
	// (workspace, platform, external account id).
	Upsert(ctx context.Context, account *models.AdAccount) error
	GetByID(ctx context.Context, id string) (*models.AdAccount, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.AdAccount, error)
	ListActiveByWorkspace(ctx context.Context, workspaceID string) ([]*models.AdAccount, error)
	Disconnect(ctx context.Context, id string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
}

// SnapshotRepository defines methods for website snapshot access.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.WebsiteSnapshot) error
	// GetLatestByWebsiteID returns the most recent snapshot for a website
	// id, or nil when none exists. Freshness is the caller's concern.
	GetLatestByWebsiteID(ctx context.Context, websiteID string) (*models.WebsiteSnapshot, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	Report       ReportRepository
	Workspace    WorkspaceRepository
	BillingEvent BillingEventRepository
	AdAccount    AdAccountRepository
	Snapshot     SnapshotRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Report:       NewSQLiteReportRepository(db),
		Workspace:    NewSQLiteWorkspaceRepository(db),
		BillingEvent: NewSQLiteBillingEventRepository(db),
		AdAccount:    NewSQLiteAdAccountRepository(db),
		Snapshot:     NewSQLiteSnapshotRepository(db),
	}
}
