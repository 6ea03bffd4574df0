package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/post/entity"
)

// PostRepository defines the interface for post storage
type PostRepository interface {
	// Upsert inserts the post or overwrites metric, caption and timestamp
	// fields of the existing row with the same external ID
	Upsert(ctx context.Context, post *entity.Post) error
	// GetByExternalID retrieves a post scoped to its account
	GetByExternalID(ctx context.Context, accountID, externalID string) (*entity.Post, error)
	// ListByAccount retrieves all posts for an account, newest first
	ListByAccount(ctx context.Context, accountID string) ([]entity.Post, error)
	// Count returns the number of stored posts for an account
	Count(ctx context.Context, accountID string) (int64, error)
	// DeleteByAccount removes all posts for an account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// PostPostgres implements PostRepository for PostgreSQL
type PostPostgres struct {
	pool *pgxpool.Pool
}

// NewPostPostgres creates a new PostgreSQL post repository
func NewPostPostgres(pool *pgxpool.Pool) *PostPostgres {
	return &PostPostgres{pool: pool}
}

// Upsert inserts or updates a post by external ID
func (r *PostPostgres) Upsert(ctx context.Context, post *entity.Post) error {
	query := `
		INSERT INTO posts (external_id, account_id, posted_at, permalink, caption,
		                   like_count, comment_count, share_count, save_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			posted_at = EXCLUDED.posted_at,
			permalink = EXCLUDED.permalink,
			caption = EXCLUDED.caption,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			share_count = EXCLUDED.share_count,
			save_count = EXCLUDED.save_count,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		post.ExternalID,
		post.AccountID,
		post.PostedAt,
		post.Permalink,
		post.Caption,
		post.LikeCount,
		post.CommentCount,
		post.ShareCount,
		post.SaveCount,
	)
	if err != nil {
		return fmt.Errorf("upserting post: %w", err)
	}

	return nil
}

// GetByExternalID retrieves a post scoped to its account
func (r *PostPostgres) GetByExternalID(ctx context.Context, accountID, externalID string) (*entity.Post, error) {
	query := `
		SELECT external_id, account_id, posted_at, permalink, caption,
		       like_count, comment_count, share_count, save_count
		FROM posts
		WHERE account_id = $1 AND external_id = $2
	`

	row := r.pool.QueryRow(ctx, query, accountID, externalID)

	post, err := scanPost(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}

	return post, nil
}

// ListByAccount retrieves all posts for an account ordered by posted_at
// descending; posts without a timestamp sort last.
func (r *PostPostgres) ListByAccount(ctx context.Context, accountID string) ([]entity.Post, error) {
	query := `
		SELECT external_id, account_id, posted_at, permalink, caption,
		       like_count, comment_count, share_count, save_count
		FROM posts
		WHERE account_id = $1
		ORDER BY posted_at DESC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []entity.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		posts = append(posts, *post)
	}

	return posts, nil
}

// Count returns the number of stored posts for an account
func (r *PostPostgres) Count(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM posts WHERE account_id = $1",
		accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return count, nil
}

// DeleteByAccount removes all posts for an account
func (r *PostPostgres) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM posts WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("deleting posts: %w", err)
	}
	return nil
}

func scanPost(row pgx.Row) (*entity.Post, error) {
	var post entity.Post
	err := row.Scan(
		&post.ExternalID,
		&post.AccountID,
		&post.PostedAt,
		&post.Permalink,
		&post.Caption,
		&post.LikeCount,
		&post.CommentCount,
		&post.ShareCount,
		&post.SaveCount,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
