package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
	"github.com/synterhq/synter-api/internal/service"
)

// ========================================
// Workspace Webhook Tests
// ========================================

// Repo stubs embed the interface so only the methods the lifecycle
// service touches need implementations.

type stubWorkspaceRepo struct {
	repository.WorkspaceRepository
	workspaces map[string]*models.Workspace
}

func (r *stubWorkspaceRepo) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	return r.workspaces[id], nil
}

func (r *stubWorkspaceRepo) Create(ctx context.Context, ws *models.Workspace) error {
	r.workspaces[ws.ID] = ws
	return nil
}

func (r *stubWorkspaceRepo) Delete(ctx context.Context, id string) error {
	delete(r.workspaces, id)
	return nil
}

type stubReportRepo struct {
	repository.ReportRepository
	deleted []string
}

func (r *stubReportRepo) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	r.deleted = append(r.deleted, workspaceID)
	return 0, nil
}

type stubAdAccountRepo struct {
	repository.AdAccountRepository
}

func (r *stubAdAccountRepo) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return 0, nil
}

type stubBillingEventRepo struct {
	repository.BillingEventRepository
}

func (r *stubBillingEventRepo) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return 0, nil
}

const workspaceWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func newWorkspaceWebhookHandler(t *testing.T) (*WorkspaceWebhookHandler, *stubWorkspaceRepo) {
	t.Helper()

	wsRepo := &stubWorkspaceRepo{workspaces: make(map[string]*models.Workspace)}
	repos := &repository.Repositories{
		Workspace:    wsRepo,
		Report:       &stubReportRepo{},
		AdAccount:    &stubAdAccountRepo{},
		BillingEvent: &stubBillingEventRepo{},
	}
	billing := config.DefaultBillingConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewWorkspaceService(repos, &billing, logger)

	cfg := &config.Config{WorkspaceWebhookSecret: workspaceWebhookSecret}
	return NewWorkspaceWebhookHandler(cfg, svc, logger), wsRepo
}

// signWorkspacePayload produces svix-compatible signature headers.
func signWorkspacePayload(t *testing.T, payload []byte) http.Header {
	t.Helper()

	key, err := base64.StdEncoding.DecodeString(workspaceWebhookSecret[len("whsec_"):])
	if err != nil {
		t.Fatalf("failed to decode webhook secret: %v", err)
	}

	msgID := "msg_test"
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", msgID, timestamp, payload)

	headers := http.Header{}
	headers.Set("svix-id", msgID)
	headers.Set("svix-timestamp", timestamp)
	headers.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return headers
}

func postWorkspaceWebhook(handler *WorkspaceWebhookHandler, payload []byte, headers http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/workspace", bytes.NewReader(payload))
	for k, v := range headers {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)
	return rec
}

func TestWorkspaceWebhook_RejectsBadSignature(t *testing.T) {
	handler, wsRepo := newWorkspaceWebhookHandler(t)

	payload := []byte(`{"type":"workspace.created","data":{"id":"ws_1"}}`)
	headers := http.Header{}
	headers.Set("svix-id", "msg_test")
	headers.Set("svix-timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	headers.Set("svix-signature", "v1,bm90LWEtcmVhbC1zaWduYXR1cmU=")

	rec := postWorkspaceWebhook(handler, payload, headers)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(wsRepo.workspaces) != 0 {
		t.Error("workspace created despite invalid signature")
	}
}

func TestWorkspaceWebhook_CreatedProvisionsWorkspace(t *testing.T) {
	handler, wsRepo := newWorkspaceWebhookHandler(t)

	payload := []byte(`{"type":"workspace.created","data":{"id":"ws_1","name":"Acme"}}`)
	rec := postWorkspaceWebhook(handler, payload, signWorkspacePayload(t, payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	ws := wsRepo.workspaces["ws_1"]
	if ws == nil {
		t.Fatal("workspace not provisioned")
	}
	if ws.Plan != config.PlanFree {
		t.Errorf("Plan = %q, want %q", ws.Plan, config.PlanFree)
	}
}

func TestWorkspaceWebhook_CreatedReplayKeepsExistingPlan(t *testing.T) {
	handler, wsRepo := newWorkspaceWebhookHandler(t)
	wsRepo.workspaces["ws_1"] = &models.Workspace{ID: "ws_1", Plan: config.PlanPro, ReportCredits: 42}

	payload := []byte(`{"type":"workspace.created","data":{"id":"ws_1"}}`)
	rec := postWorkspaceWebhook(handler, payload, signWorkspacePayload(t, payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	ws := wsRepo.workspaces["ws_1"]
	if ws.Plan != config.PlanPro || ws.ReportCredits != 42 {
		t.Errorf("replay modified workspace: plan=%q credits=%d", ws.Plan, ws.ReportCredits)
	}
}

func TestWorkspaceWebhook_DeletedPurgesWorkspace(t *testing.T) {
	handler, wsRepo := newWorkspaceWebhookHandler(t)
	wsRepo.workspaces["ws_1"] = &models.Workspace{ID: "ws_1", Plan: config.PlanFree}

	payload := []byte(`{"type":"workspace.deleted","data":{"id":"ws_1"}}`)
	rec := postWorkspaceWebhook(handler, payload, signWorkspacePayload(t, payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if wsRepo.workspaces["ws_1"] != nil {
		t.Error("workspace not deleted")
	}
}

func TestWorkspaceWebhook_UnhandledTypeIsAccepted(t *testing.T) {
	handler, wsRepo := newWorkspaceWebhookHandler(t)

	payload := []byte(`{"type":"workspace.renamed","data":{"id":"ws_1"}}`)
	rec := postWorkspaceWebhook(handler, payload, signWorkspacePayload(t, payload))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(wsRepo.workspaces) != 0 {
		t.Error("unexpected workspace mutation")
	}
}
