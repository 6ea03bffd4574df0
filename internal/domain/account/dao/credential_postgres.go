package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/account/entity"
)

// CredentialRepository defines the interface for access-token storage.
// The system holds at most one credential at any time.
type CredentialRepository interface {
	// Replace atomically supersedes any stored credential with cred
	Replace(ctx context.Context, cred *entity.Credential) error
	// Get retrieves the current credential, or nil when none is stored
	Get(ctx context.Context) (*entity.Credential, error)
	// DeleteByAccount removes the credential if it belongs to the account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// CredentialPostgres implements CredentialRepository for PostgreSQL
type CredentialPostgres struct {
	pool *pgxpool.Pool
}

// NewCredentialPostgres creates a new PostgreSQL credential repository
func NewCredentialPostgres(pool *pgxpool.Pool) *CredentialPostgres {
	return &CredentialPostgres{pool: pool}
}

// Replace deletes any existing credential and inserts the new one in a
// single transaction. Concurrent replacements serialize on the table and
// resolve last-writer-wins.
func (r *CredentialPostgres) Replace(ctx context.Context, cred *entity.Credential) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM credentials"); err != nil {
		return fmt.Errorf("deleting prior credentials: %w", err)
	}

	query := `
		INSERT INTO credentials (token, account_id, created_at)
		VALUES ($1, $2, NOW())
	`
	if _, err := tx.Exec(ctx, query, cred.Token, cred.AccountID); err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Get retrieves the current credential
func (r *CredentialPostgres) Get(ctx context.Context) (*entity.Credential, error) {
	query := `
		SELECT token, account_id, created_at
		FROM credentials
		ORDER BY created_at DESC
		LIMIT 1
	`

	var cred entity.Credential
	err := r.pool.QueryRow(ctx, query).Scan(&cred.Token, &cred.AccountID, &cred.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning credential: %w", err)
	}

	return &cred, nil
}

// DeleteByAccount removes the credential tied to the account
func (r *CredentialPostgres) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM credentials WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}
