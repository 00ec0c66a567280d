package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/service"
)

// AdAccountsHandler handles ad account endpoints.
type AdAccountsHandler struct {
	spendSvc *service.SpendService
}

// NewAdAccountsHandler creates a new ad accounts handler.
func NewAdAccountsHandler(spendSvc *service.SpendService) *AdAccountsHandler {
	return &AdAccountsHandler{spendSvc: spendSvc}
}

// AdAccountOutput represents an ad account in API responses. Tokens are
// never included.
type AdAccountOutput struct {
	ID                string `json:"id" doc:"Ad account ID"`
	Platform          string `json:"platform" doc:"Ad platform (google, meta)"`
	ExternalAccountID string `json:"external_account_id" doc:"Account ID at the platform"`
	Name              string `json:"name,omitempty" doc:"Display name"`
	Status            string `json:"status" doc:"active or disconnected"`
	ConnectedAt       string `json:"connected_at" doc:"Connection timestamp"`
}

func adAccountToOutput(a *models.AdAccount) AdAccountOutput {
	return AdAccountOutput{
		ID:                a.ID,
		Platform:          string(a.Platform),
		ExternalAccountID: a.ExternalAccountID,
		Name:              a.Name,
		Status:            string(a.Status),
		ConnectedAt:       a.ConnectedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ConnectAdAccountInput represents an ad account connection request.
type ConnectAdAccountInput struct {
	Body struct {
		Platform          string `json:"platform" doc:"Ad platform (google, meta)"`
		ExternalAccountID string `json:"external_account_id" doc:"Account ID at the platform"`
		Name              string `json:"name,omitempty" doc:"Display name"`
		AccessToken       string `json:"access_token" doc:"OAuth access token"`
		RefreshToken      string `json:"refresh_token,omitempty" doc:"OAuth refresh token"`
	}
}

// ConnectAdAccountOutput represents an ad account connection response.
type ConnectAdAccountOutput struct {
	Body AdAccountOutput
}

// ConnectAdAccount stores an ad account with its tokens encrypted at rest.
func (h *AdAccountsHandler) ConnectAdAccount(ctx context.Context, input *ConnectAdAccountInput) (*ConnectAdAccountOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	account, err := h.spendSvc.ConnectAccount(ctx, workspaceID, service.ConnectAccountRequest{
		Platform:          models.AdPlatform(input.Body.Platform),
		ExternalAccountID: input.Body.ExternalAccountID,
		Name:              input.Body.Name,
		AccessToken:       input.Body.AccessToken,
		RefreshToken:      input.Body.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to connect account: " + err.Error())
	}

	return &ConnectAdAccountOutput{Body: adAccountToOutput(account)}, nil
}

// ListAdAccountsOutput represents list ad accounts response.
type ListAdAccountsOutput struct {
	Body struct {
		Accounts []AdAccountOutput `json:"accounts" doc:"Connected ad accounts"`
	}
}

// ListAdAccounts returns the workspace's ad accounts.
func (h *AdAccountsHandler) ListAdAccounts(ctx context.Context, input *struct{}) (*ListAdAccountsOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	accounts, err := h.spendSvc.ListAccounts(ctx, workspaceID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list accounts: " + err.Error())
	}

	output := &ListAdAccountsOutput{}
	output.Body.Accounts = make([]AdAccountOutput, 0, len(accounts))
	for _, a := range accounts {
		output.Body.Accounts = append(output.Body.Accounts, adAccountToOutput(a))
	}
	return output, nil
}

// DisconnectAdAccountInput represents disconnect request.
type DisconnectAdAccountInput struct {
	ID string `path:"id" doc:"Ad account ID"`
}

// DisconnectAdAccountOutput represents disconnect response.
type DisconnectAdAccountOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// DisconnectAdAccount disconnects an ad account and wipes its tokens.
func (h *AdAccountsHandler) DisconnectAdAccount(ctx context.Context, input *DisconnectAdAccountInput) (*DisconnectAdAccountOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.spendSvc.DisconnectAccount(ctx, workspaceID, input.ID); err != nil {
		if errors.Is(err, service.ErrAdAccountNotFound) {
			return nil, huma.Error404NotFound("ad account not found")
		}
		return nil, huma.Error500InternalServerError("failed to disconnect account: " + err.Error())
	}

	output := &DisconnectAdAccountOutput{}
	output.Body.Message = "account disconnected"
	return output, nil
}
