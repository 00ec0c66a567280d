package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// SQLiteAdAccountRepository implements AdAccountRepository for SQLite.
type SQLiteAdAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAdAccountRepository creates a new SQLite ad account repository.
func NewSQLiteAdAccountRepository(db *sql.DB) *SQLiteAdAccountRepository {
	return &SQLiteAdAccountRepository{db: db}
}

const adAccountColumns = `id, workspace_id, platform, external_id, name, status,
	access_token_enc, refresh_token_enc, connected_at, updated_at`

func (r *SQLiteAdAccountRepository) Upsert(ctx context.Context, account *models.AdAccount) error {
	query := `
		INSERT INTO ad_accounts (` + adAccountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, platform, external_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			access_token_enc = excluded.access_token_enc,
			refresh_token_enc = excluded.refresh_token_enc,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.WorkspaceID,
		account.Platform,
		account.ExternalAccountID,
		account.Name,
		account.Status,
		account.AccessTokenEnc,
		account.RefreshTokenEnc,
		account.ConnectedAt.Format(time.RFC3339),
		account.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ad account: %w", err)
	}
	return nil
}

func (r *SQLiteAdAccountRepository) GetByID(ctx context.Context, id string) (*models.AdAccount, error) {
	query := `SELECT ` + adAccountColumns + ` FROM ad_accounts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	account, err := scanAdAccount(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ad account: %w", err)
	}
	return account, nil
}

func (r *SQLiteAdAccountRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.AdAccount, error) {
	query := `SELECT ` + adAccountColumns + ` FROM ad_accounts WHERE workspace_id = ? ORDER BY connected_at`
	return r.queryAccounts(ctx, query, workspaceID)
}

func (r *SQLiteAdAccountRepository) ListActiveByWorkspace(ctx context.Context, workspaceID string) ([]*models.AdAccount, error) {
	query := `SELECT ` + adAccountColumns + ` FROM ad_accounts WHERE workspace_id = ? AND status = 'active' ORDER BY connected_at`
	return r.queryAccounts(ctx, query, workspaceID)
}

func (r *SQLiteAdAccountRepository) Disconnect(ctx context.Context, id string) error {
	// Tokens are wiped on disconnect, not kept around.
	result, err := r.db.ExecContext(ctx, `
		UPDATE ad_accounts
		SET status = 'disconnected', access_token_enc = '', refresh_token_enc = '', updated_at = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to disconnect ad account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ad account %s not found", id)
	}
	return nil
}

func (r *SQLiteAdAccountRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ad_accounts WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ad accounts: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteAdAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*models.AdAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ad accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.AdAccount
	for rows.Next() {
		account, err := scanAdAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAdAccount(scan func(...any) error) (*models.AdAccount, error) {
	var account models.AdAccount
	var connectedAt, updatedAt string

	err := scan(
		&account.ID, &account.WorkspaceID, &account.Platform, &account.ExternalAccountID,
		&account.Name, &account.Status, &account.AccessTokenEnc, &account.RefreshTokenEnc,
		&connectedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.ConnectedAt, _ = time.Parse(time.RFC3339, connectedAt)
	account.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &account, nil
}
