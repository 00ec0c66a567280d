package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/synterhq/synter-api/internal/service"
)

// EntitlementsHandler handles entitlement endpoints.
type EntitlementsHandler struct {
	entitlementSvc *service.EntitlementService
}

// NewEntitlementsHandler creates a new entitlements handler.
func NewEntitlementsHandler(entitlementSvc *service.EntitlementService) *EntitlementsHandler {
	return &EntitlementsHandler{entitlementSvc: entitlementSvc}
}

// GetEntitlementsOutput represents the entitlements response.
type GetEntitlementsOutput struct {
	Body struct {
		WorkspaceID               string `json:"workspace_id" doc:"Workspace ID"`
		Plan                      string `json:"plan" doc:"Current plan (FREE, PRO, ENTERPRISE)"`
		ReportCredits             int    `json:"report_credits" doc:"Credits remaining this period"`
		ReportsGeneratedThisMonth int    `json:"reports_generated_this_month" doc:"Reports generated since the last reset"`
		CanPublish                bool   `json:"can_publish" doc:"Whether reports can be shared publicly"`
		CreditsResetDate          string `json:"credits_reset_date" doc:"When the monthly allowance next resets"`
	}
}

// GetEntitlements returns the workspace's current plan, credits and caps.
func (h *EntitlementsHandler) GetEntitlements(ctx context.Context, input *struct{}) (*GetEntitlementsOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	ent, err := h.entitlementSvc.GetEntitlements(ctx, workspaceID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get entitlements: " + err.Error())
	}

	output := &GetEntitlementsOutput{}
	output.Body.WorkspaceID = ent.WorkspaceID
	output.Body.Plan = ent.Plan
	output.Body.ReportCredits = ent.ReportCredits
	output.Body.ReportsGeneratedThisMonth = ent.ReportsGeneratedThisMonth
	output.Body.CanPublish = ent.CanPublish
	output.Body.CreditsResetDate = ent.CreditsResetDate.UTC().Format("2006-01-02T15:04:05Z")
	return output, nil
}
