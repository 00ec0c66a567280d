package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockWorkspaceRepository implements repository.WorkspaceRepository for testing
type mockWorkspaceRepository struct {
	mu         sync.RWMutex
	workspaces map[string]*models.Workspace
	getErr     error
	updateErr  error

	// afterGet runs after a successful load with the lock released,
	// letting a test interleave writes between a load and the write that
	// follows it.
	afterGet func(id string)
}

func newMockWorkspaceRepository() *mockWorkspaceRepository {
	return &mockWorkspaceRepository{
		workspaces: make(map[string]*models.Workspace),
	}
}

func (m *mockWorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ws
	m.workspaces[ws.ID] = &copy
	return nil
}

func (m *mockWorkspaceRepository) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	m.mu.RLock()
	var out *models.Workspace
	if ws, ok := m.workspaces[id]; ok {
		copy := *ws
		out = &copy
	}
	err := m.getErr
	m.mu.RUnlock()

	if err != nil {
		return nil, err
	}
	if m.afterGet != nil {
		m.afterGet(id)
	}
	return out, nil
}

func (m *mockWorkspaceRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Workspace, error) {
	m.mu.RLock()
	var out *models.Workspace
	for _, ws := range m.workspaces {
		if ws.StripeCustomerID != nil && *ws.StripeCustomerID == customerID {
			copy := *ws
			out = &copy
			break
		}
	}
	m.mu.RUnlock()

	if out != nil && m.afterGet != nil {
		m.afterGet(out.ID)
	}
	return out, nil
}

func (m *mockWorkspaceRepository) Update(ctx context.Context, ws *models.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	copy := *ws
	m.workspaces[ws.ID] = &copy
	return nil
}

func (m *mockWorkspaceRepository) ConsumeCredits(ctx context.Context, workspaceID string, credits int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[workspaceID]
	if !ok || ws.ReportCredits < credits {
		return false, nil
	}
	ws.ReportCredits -= credits
	ws.ReportsGeneratedThisMonth++
	return true, nil
}

func (m *mockWorkspaceRepository) AddCredits(ctx context.Context, workspaceID string, credits int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return errors.New("workspace not found")
	}
	ws.ReportCredits += credits
	return nil
}

func (m *mockWorkspaceRepository) SetStripeCustomerID(ctx context.Context, workspaceID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return errors.New("workspace not found")
	}
	id := customerID
	ws.StripeCustomerID = &id
	return nil
}

func (m *mockWorkspaceRepository) UpdateSubscriptionState(ctx context.Context, ws *models.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.workspaces[ws.ID]
	if !ok {
		return errors.New("workspace not found")
	}
	stored.Plan = ws.Plan
	stored.CanPublish = ws.CanPublish
	stored.StripeSubscriptionID = ws.StripeSubscriptionID
	stored.SubscriptionStatus = ws.SubscriptionStatus
	stored.PendingDowngrade = ws.PendingDowngrade
	return nil
}

func (m *mockWorkspaceRepository) ResetAllocation(ctx context.Context, workspaceID string, credits int, resetDate, seenResetDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[workspaceID]
	if !ok || !ws.CreditsResetDate.Equal(seenResetDate) {
		return false, nil
	}
	ws.ReportCredits = credits
	ws.ReportsGeneratedThisMonth = 0
	ws.CreditsResetDate = resetDate
	return true, nil
}

func (m *mockWorkspaceRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workspaces, id)
	return nil
}

func (m *mockWorkspaceRepository) setWorkspace(ws *models.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ws
	m.workspaces[ws.ID] = &copy
}

func (m *mockWorkspaceRepository) workspace(id string) *models.Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ws, ok := m.workspaces[id]; ok {
		copy := *ws
		return &copy
	}
	return nil
}

// mockBillingEventRepository implements repository.BillingEventRepository for testing
type mockBillingEventRepository struct {
	mu        sync.RWMutex
	events    []*models.BillingEvent
	bySource  map[string]*models.BillingEvent
	createErr error
}

func newMockBillingEventRepository() *mockBillingEventRepository {
	return &mockBillingEventRepository{
		bySource: make(map[string]*models.BillingEvent),
	}
}

func (m *mockBillingEventRepository) Create(ctx context.Context, event *models.BillingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if event.SourceEventID != nil {
		if _, dup := m.bySource[*event.SourceEventID]; dup {
			return repository.ErrDuplicateSourceEvent
		}
		m.bySource[*event.SourceEventID] = event
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockBillingEventRepository) GetBySourceEventID(ctx context.Context, sourceEventID string) (*models.BillingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.bySource[sourceEventID]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, nil
}

func (m *mockBillingEventRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*models.BillingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.BillingEvent
	for _, e := range m.events {
		if e.WorkspaceID == workspaceID {
			copy := *e
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockBillingEventRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.BillingEvent
	var removed int64
	for _, e := range m.events {
		if e.WorkspaceID == workspaceID {
			removed++
			if e.SourceEventID != nil {
				delete(m.bySource, *e.SourceEventID)
			}
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return removed, nil
}

func (m *mockBillingEventRepository) eventsOfType(eventType models.BillingEventType) []*models.BillingEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.BillingEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// mockReportRepository implements repository.ReportRepository for testing
type mockReportRepository struct {
	mu        sync.RWMutex
	reports   map[string]*models.Report
	createErr error
	updateErr error
}

func newMockReportRepository() *mockReportRepository {
	return &mockReportRepository{
		reports: make(map[string]*models.Report),
	}
}

func (m *mockReportRepository) Create(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	copy := *report
	m.reports[report.ID] = &copy
	return nil
}

func (m *mockReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reports[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, nil
}

func (m *mockReportRepository) findByStatus(workspaceID string, reportType models.ReportType, inputHash string, status models.ReportStatus) *models.Report {
	var newest *models.Report
	for _, r := range m.reports {
		if r.WorkspaceID != workspaceID || r.ReportType != reportType || r.InputHash != inputHash || r.Status != status {
			continue
		}
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	if newest == nil {
		return nil
	}
	copy := *newest
	return &copy
}

func (m *mockReportRepository) FindReady(ctx context.Context, workspaceID string, reportType models.ReportType, inputHash string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByStatus(workspaceID, reportType, inputHash, models.ReportStatusReady), nil
}

func (m *mockReportRepository) FindGenerating(ctx context.Context, workspaceID string, reportType models.ReportType, inputHash string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByStatus(workspaceID, reportType, inputHash, models.ReportStatusGenerating), nil
}

func (m *mockReportRepository) Update(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	copy := *report
	m.reports[report.ID] = &copy
	return nil
}

func (m *mockReportRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Report
	for _, r := range m.reports {
		if r.WorkspaceID == workspaceID {
			copy := *r
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockReportRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, r := range m.reports {
		if r.WorkspaceID == workspaceID {
			delete(m.reports, id)
			removed++
		}
	}
	return removed, nil
}

func (m *mockReportRepository) MarkStaleGeneratingFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().Add(-maxAge)
	var n int64
	for _, r := range m.reports {
		if r.Status == models.ReportStatusGenerating && r.UpdatedAt.Before(cutoff) {
			r.Status = models.ReportStatusFailed
			n++
		}
	}
	return n, nil
}

func (m *mockReportRepository) report(id string) *models.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reports[id]; ok {
		copy := *r
		return &copy
	}
	return nil
}

// mockAdAccountRepository implements repository.AdAccountRepository for testing
type mockAdAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*models.AdAccount
}

func newMockAdAccountRepository() *mockAdAccountRepository {
	return &mockAdAccountRepository{
		accounts: make(map[string]*models.AdAccount),
	}
}

func (m *mockAdAccountRepository) Upsert(ctx context.Context, account *models.AdAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.WorkspaceID == account.WorkspaceID && a.Platform == account.Platform && a.ExternalAccountID == account.ExternalAccountID {
			account.ID = a.ID
			break
		}
	}
	copy := *account
	m.accounts[account.ID] = &copy
	return nil
}

func (m *mockAdAccountRepository) GetByID(ctx context.Context, id string) (*models.AdAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (m *mockAdAccountRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.AdAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.AdAccount
	for _, a := range m.accounts {
		if a.WorkspaceID == workspaceID {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *mockAdAccountRepository) ListActiveByWorkspace(ctx context.Context, workspaceID string) ([]*models.AdAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.AdAccount
	for _, a := range m.accounts {
		if a.WorkspaceID == workspaceID && a.Status == models.AdAccountActive {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *mockAdAccountRepository) Disconnect(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return errors.New("ad account not found")
	}
	a.Status = models.AdAccountDisconnected
	a.AccessTokenEnc = ""
	a.RefreshTokenEnc = ""
	return nil
}

func (m *mockAdAccountRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, a := range m.accounts {
		if a.WorkspaceID == workspaceID {
			delete(m.accounts, id)
			removed++
		}
	}
	return removed, nil
}

// mockSnapshotRepository implements repository.SnapshotRepository for testing
type mockSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []*models.WebsiteSnapshot
}

func newMockSnapshotRepository() *mockSnapshotRepository {
	return &mockSnapshotRepository{}
}

func (m *mockSnapshotRepository) Create(ctx context.Context, snapshot *models.WebsiteSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *snapshot
	m.snapshots = append(m.snapshots, &copy)
	return nil
}

func (m *mockSnapshotRepository) GetLatestByWebsiteID(ctx context.Context, websiteID string) (*models.WebsiteSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.WebsiteSnapshot
	for _, s := range m.snapshots {
		if s.WebsiteID != websiteID {
			continue
		}
		if latest == nil || s.FetchedAt.After(latest.FetchedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (m *mockSnapshotRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.WebsiteSnapshot
	var n int64
	for _, s := range m.snapshots {
		if s.FetchedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.snapshots = kept
	return n, nil
}

func newMockRepositories() (*repository.Repositories, *mockWorkspaceRepository, *mockBillingEventRepository, *mockReportRepository) {
	wsRepo := newMockWorkspaceRepository()
	eventRepo := newMockBillingEventRepository()
	reportRepo := newMockReportRepository()
	repos := &repository.Repositories{
		Report:       reportRepo,
		Workspace:    wsRepo,
		BillingEvent: eventRepo,
		AdAccount:    newMockAdAccountRepository(),
		Snapshot:     newMockSnapshotRepository(),
	}
	return repos, wsRepo, eventRepo, reportRepo
}
