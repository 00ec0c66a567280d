package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/synterhq/synter-api/internal/ads"
	"github.com/synterhq/synter-api/internal/crypto"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

// SpendService manages the ad account connections that feed
// SPEND_BASELINE reports. Platform tokens are sealed before they touch
// the database and only the report pipeline ever opens them again.
type SpendService struct {
	repos      *repository.Repositories
	sealer     *crypto.TokenSealer
	connectors map[models.AdPlatform]ads.Connector
	logger     *slog.Logger
}

// NewSpendService creates a new spend service.
func NewSpendService(repos *repository.Repositories, sealer *crypto.TokenSealer, connectors map[models.AdPlatform]ads.Connector, logger *slog.Logger) *SpendService {
	return &SpendService{
		repos:      repos,
		sealer:     sealer,
		connectors: connectors,
		logger:     logger,
	}
}

// ConnectAccountRequest carries the OAuth result for a platform account.
type ConnectAccountRequest struct {
	Platform          models.AdPlatform
	ExternalAccountID string
	Name              string
	AccessToken       string
	RefreshToken      string
}

// ConnectAccount stores a platform connection. Reconnecting an existing
// (platform, external id) pair refreshes its tokens and reactivates it.
func (s *SpendService) ConnectAccount(ctx context.Context, workspaceID string, req ConnectAccountRequest) (*models.AdAccount, error) {
	if req.ExternalAccountID == "" || req.AccessToken == "" {
		return nil, ErrInvalidInput
	}
	if _, ok := s.connectors[req.Platform]; !ok {
		return nil, fmt.Errorf("%w: unsupported platform %q", ErrInvalidInput, req.Platform)
	}

	accessEnc, err := s.sealer.Seal(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to seal access token: %w", err)
	}
	refreshEnc, err := s.sealer.Seal(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to seal refresh token: %w", err)
	}

	now := time.Now().UTC()
	account := &models.AdAccount{
		ID:                newID("acct_"),
		WorkspaceID:       workspaceID,
		Platform:          req.Platform,
		ExternalAccountID: req.ExternalAccountID,
		Name:              req.Name,
		Status:            models.AdAccountActive,
		AccessTokenEnc:    accessEnc,
		RefreshTokenEnc:   refreshEnc,
		ConnectedAt:       now,
		UpdatedAt:         now,
	}
	if err := s.repos.AdAccount.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to store ad account: %w", err)
	}

	s.logger.Info("ad account connected",
		"workspace_id", workspaceID,
		"platform", req.Platform,
		"external_account_id", req.ExternalAccountID,
	)
	return account, nil
}

// ListAccounts returns every connection the workspace has, including
// disconnected ones.
func (s *SpendService) ListAccounts(ctx context.Context, workspaceID string) ([]*models.AdAccount, error) {
	return s.repos.AdAccount.ListByWorkspace(ctx, workspaceID)
}

// DisconnectAccount revokes a connection and wipes its stored tokens.
func (s *SpendService) DisconnectAccount(ctx context.Context, workspaceID, accountID string) error {
	account, err := s.repos.AdAccount.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load ad account: %w", err)
	}
	if account == nil || account.WorkspaceID != workspaceID {
		return ErrAdAccountNotFound
	}

	if err := s.repos.AdAccount.Disconnect(ctx, accountID); err != nil {
		return fmt.Errorf("failed to disconnect ad account: %w", err)
	}

	s.logger.Info("ad account disconnected",
		"workspace_id", workspaceID,
		"account_id", accountID,
		"platform", account.Platform,
	)
	return nil
}
