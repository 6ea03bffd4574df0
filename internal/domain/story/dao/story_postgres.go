package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/story/entity"
)

// StoryRepository defines the interface for story storage. Stories are a
// snapshot of the account's currently active set, so the only write is a
// full replace.
type StoryRepository interface {
	// ReplaceAll atomically swaps the account's stored stories with the
	// provided set; an empty set clears the account's stories
	ReplaceAll(ctx context.Context, accountID string, stories []entity.Story) error
	// ListByAccount retrieves stored stories, newest first
	ListByAccount(ctx context.Context, accountID string) ([]entity.Story, error)
	// DeleteByAccount removes all stories for an account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// StoryPostgres implements StoryRepository for PostgreSQL
type StoryPostgres struct {
	pool *pgxpool.Pool
}

// NewStoryPostgres creates a new PostgreSQL story repository
func NewStoryPostgres(pool *pgxpool.Pool) *StoryPostgres {
	return &StoryPostgres{pool: pool}
}

// ReplaceAll deletes and reinserts the account's stories in a single
// transaction.
func (r *StoryPostgres) ReplaceAll(ctx context.Context, accountID string, stories []entity.Story) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM stories WHERE account_id = $1", accountID); err != nil {
		return fmt.Errorf("deleting prior stories: %w", err)
	}

	query := `
		INSERT INTO stories (external_id, account_id, posted_at, permalink,
		                     view_count, profile_click_count, swipe_up_count, reply_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, s := range stories {
		_, err := tx.Exec(ctx, query,
			s.ExternalID,
			accountID,
			s.PostedAt,
			s.Permalink,
			s.ViewCount,
			s.ProfileClickCount,
			s.SwipeUpCount,
			s.ReplyCount,
		)
		if err != nil {
			return fmt.Errorf("inserting story %s: %w", s.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ListByAccount retrieves stored stories, newest first
func (r *StoryPostgres) ListByAccount(ctx context.Context, accountID string) ([]entity.Story, error) {
	query := `
		SELECT external_id, account_id, posted_at, permalink,
		       view_count, profile_click_count, swipe_up_count, reply_count
		FROM stories
		WHERE account_id = $1
		ORDER BY posted_at DESC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying stories: %w", err)
	}
	defer rows.Close()

	var stories []entity.Story
	for rows.Next() {
		var s entity.Story
		err := rows.Scan(
			&s.ExternalID,
			&s.AccountID,
			&s.PostedAt,
			&s.Permalink,
			&s.ViewCount,
			&s.ProfileClickCount,
			&s.SwipeUpCount,
			&s.ReplyCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		stories = append(stories, s)
	}

	return stories, nil
}

// DeleteByAccount removes all stories for an account
func (r *StoryPostgres) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM stories WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("deleting stories: %w", err)
	}
	return nil
}
