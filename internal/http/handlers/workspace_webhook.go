package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/service"
)

// WorkspaceWebhookHandler handles workspace lifecycle webhooks from the
// identity provider.
type WorkspaceWebhookHandler struct {
	cfg          *config.Config
	workspaceSvc *service.WorkspaceService
	logger       *slog.Logger
}

// NewWorkspaceWebhookHandler creates a new workspace webhook handler.
func NewWorkspaceWebhookHandler(cfg *config.Config, workspaceSvc *service.WorkspaceService, logger *slog.Logger) *WorkspaceWebhookHandler {
	return &WorkspaceWebhookHandler{
		cfg:          cfg,
		workspaceSvc: workspaceSvc,
		logger:       logger,
	}
}

// WorkspaceWebhookEvent represents a workspace lifecycle event.
type WorkspaceWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WorkspaceData represents the workspace payload in lifecycle events.
type WorkspaceData struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// HandleWebhook processes incoming workspace lifecycle webhooks.
func (h *WorkspaceWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 65536 // 64KB

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Verify webhook signature using Svix
	headers := http.Header{}
	headers.Set("svix-id", r.Header.Get("svix-id"))
	headers.Set("svix-timestamp", r.Header.Get("svix-timestamp"))
	headers.Set("svix-signature", r.Header.Get("svix-signature"))

	wh, err := svix.NewWebhook(h.cfg.WorkspaceWebhookSecret)
	if err != nil {
		h.logger.Error("failed to create webhook verifier", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := wh.Verify(payload, headers); err != nil {
		h.logger.Error("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var event WorkspaceWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to parse webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.handleEvent(r, event); err != nil {
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		// Return 200 to prevent retries for business logic errors.
		// Provision and Purge are both idempotent, so a redelivery is
		// safe either way.
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WorkspaceWebhookHandler) handleEvent(r *http.Request, event WorkspaceWebhookEvent) error {
	var data WorkspaceData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}
	if data.ID == "" {
		h.logger.Warn("workspace webhook missing workspace id", "type", event.Type)
		return nil
	}

	switch event.Type {
	case "workspace.created":
		_, err := h.workspaceSvc.Provision(r.Context(), data.ID)
		return err

	case "workspace.deleted":
		return h.workspaceSvc.Purge(r.Context(), data.ID)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}
