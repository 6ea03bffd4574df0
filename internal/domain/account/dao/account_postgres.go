package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/account/entity"
)

// AccountRepository defines the interface for account storage
type AccountRepository interface {
	// Create inserts a new account; existing accounts are left untouched
	Create(ctx context.Context, account *entity.Account) error
	// GetByExternalID retrieves an account by its external ID
	GetByExternalID(ctx context.Context, externalID string) (*entity.Account, error)
	// List retrieves all registered accounts
	List(ctx context.Context) ([]entity.Account, error)
	// Delete removes an account and, via cascade, everything it owns
	Delete(ctx context.Context, externalID string) error
	// DeleteData removes everything the account owns but keeps the account
	DeleteData(ctx context.Context, externalID string) error
}

// AccountPostgres implements AccountRepository for PostgreSQL
type AccountPostgres struct {
	pool *pgxpool.Pool
}

// NewAccountPostgres creates a new PostgreSQL account repository
func NewAccountPostgres(pool *pgxpool.Pool) *AccountPostgres {
	return &AccountPostgres{pool: pool}
}

// Create inserts a new account
func (r *AccountPostgres) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (external_id, username, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (external_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, account.ExternalID, account.Username)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}

	return nil
}

// GetByExternalID retrieves an account by its external ID
func (r *AccountPostgres) GetByExternalID(ctx context.Context, externalID string) (*entity.Account, error) {
	query := `
		SELECT external_id, username, created_at
		FROM accounts
		WHERE external_id = $1
	`

	var account entity.Account
	err := r.pool.QueryRow(ctx, query, externalID).Scan(
		&account.ExternalID,
		&account.Username,
		&account.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	return &account, nil
}

// List retrieves all registered accounts
func (r *AccountPostgres) List(ctx context.Context) ([]entity.Account, error) {
	query := `
		SELECT external_id, username, created_at
		FROM accounts
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []entity.Account
	for rows.Next() {
		var account entity.Account
		if err := rows.Scan(&account.ExternalID, &account.Username, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Delete removes an account; child rows go with it via ON DELETE CASCADE
func (r *AccountPostgres) Delete(ctx context.Context, externalID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM accounts WHERE external_id = $1", externalID)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// DeleteData removes every row the account owns but keeps the account row
// itself, so a fresh sync can repopulate it.
func (r *AccountPostgres) DeleteData(ctx context.Context, externalID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tables := []string{"comments", "ig_users", "posts", "stories", "demographics"}
	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s WHERE account_id = $1", table)
		if _, err := tx.Exec(ctx, query, externalID); err != nil {
			return fmt.Errorf("deleting from %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
