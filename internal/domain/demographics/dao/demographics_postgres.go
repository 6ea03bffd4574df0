package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/demographics/entity"
)

// DemographicsRepository defines the interface for demographic buckets
type DemographicsRepository interface {
	// ReplaceDimension atomically swaps all stored buckets of one
	// dimension for the account with the provided set
	ReplaceDimension(ctx context.Context, accountID string, dimension entity.Dimension, buckets []entity.Bucket) error
	// ListByDimension retrieves stored buckets for one dimension, largest
	// interaction count first
	ListByDimension(ctx context.Context, accountID string, dimension entity.Dimension) ([]entity.Bucket, error)
	// DeleteByAccount removes all demographic rows for an account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// DemographicsPostgres implements DemographicsRepository for PostgreSQL
type DemographicsPostgres struct {
	pool *pgxpool.Pool
}

// NewDemographicsPostgres creates a new PostgreSQL demographics repository
func NewDemographicsPostgres(pool *pgxpool.Pool) *DemographicsPostgres {
	return &DemographicsPostgres{pool: pool}
}

// ReplaceDimension deletes and reinserts one dimension's buckets in a
// single transaction so readers never observe a half-replaced set.
func (r *DemographicsPostgres) ReplaceDimension(ctx context.Context, accountID string, dimension entity.Dimension, buckets []entity.Bucket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"DELETE FROM demographics WHERE account_id = $1 AND dimension = $2",
		accountID, dimension,
	)
	if err != nil {
		return fmt.Errorf("deleting prior buckets: %w", err)
	}

	query := `
		INSERT INTO demographics (account_id, dimension, label, interaction_count)
		VALUES ($1, $2, $3, $4)
	`
	for _, b := range buckets {
		if _, err := tx.Exec(ctx, query, accountID, dimension, b.Label, b.InteractionCount); err != nil {
			return fmt.Errorf("inserting bucket %q: %w", b.Label, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ListByDimension retrieves stored buckets for one dimension
func (r *DemographicsPostgres) ListByDimension(ctx context.Context, accountID string, dimension entity.Dimension) ([]entity.Bucket, error) {
	query := `
		SELECT account_id, dimension, label, interaction_count
		FROM demographics
		WHERE account_id = $1 AND dimension = $2
		ORDER BY interaction_count DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID, dimension)
	if err != nil {
		return nil, fmt.Errorf("querying demographics: %w", err)
	}
	defer rows.Close()

	var buckets []entity.Bucket
	for rows.Next() {
		var b entity.Bucket
		if err := rows.Scan(&b.AccountID, &b.Dimension, &b.Label, &b.InteractionCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		buckets = append(buckets, b)
	}

	return buckets, nil
}

// DeleteByAccount removes all demographic rows for an account
func (r *DemographicsPostgres) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM demographics WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("deleting demographics: %w", err)
	}
	return nil
}
