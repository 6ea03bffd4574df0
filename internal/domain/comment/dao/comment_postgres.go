package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/comment/entity"
)

// CommentRepository defines the interface for comment storage
type CommentRepository interface {
	// GetByID retrieves a comment by external ID, nil when absent
	GetByID(ctx context.Context, externalID string) (*entity.Comment, error)
	// Create inserts a new comment with all fields including the parent
	Create(ctx context.Context, comment *entity.Comment) error
	// Update refreshes text, likes, timestamp, username and reply IDs of
	// an existing comment; the stored parent is left untouched
	Update(ctx context.Context, comment *entity.Comment) error
	// SetParentIfEmpty links a reply to its parent unless a parent is
	// already recorded (first-writer-wins)
	SetParentIfEmpty(ctx context.Context, externalID, parentID string) error
	// ListByPost retrieves comments for a post, newest first
	ListByPost(ctx context.Context, accountID, postExternalID string) ([]entity.Comment, error)
	// CountByPost returns the number of stored comments for a post
	CountByPost(ctx context.Context, accountID, postExternalID string) (int64, error)
	// DeleteByAccount removes all comments for an account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// CommentPostgres implements CommentRepository for PostgreSQL
type CommentPostgres struct {
	pool *pgxpool.Pool
}

// NewCommentPostgres creates a new PostgreSQL comment repository
func NewCommentPostgres(pool *pgxpool.Pool) *CommentPostgres {
	return &CommentPostgres{pool: pool}
}

// GetByID retrieves a comment by external ID
func (r *CommentPostgres) GetByID(ctx context.Context, externalID string) (*entity.Comment, error) {
	query := `
		SELECT external_id, account_id, post_external_id, author_id, username,
		       text, like_count, posted_at, parent_external_id, reply_ids
		FROM comments
		WHERE external_id = $1
	`

	row := r.pool.QueryRow(ctx, query, externalID)

	comment, err := scanComment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning comment: %w", err)
	}

	return comment, nil
}

// Create inserts a new comment
func (r *CommentPostgres) Create(ctx context.Context, comment *entity.Comment) error {
	query := `
		INSERT INTO comments (external_id, account_id, post_external_id, author_id,
		                      username, text, like_count, posted_at, parent_external_id,
		                      reply_ids, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		comment.ExternalID,
		comment.AccountID,
		comment.PostExternalID,
		comment.AuthorID,
		comment.Username,
		comment.Text,
		comment.LikeCount,
		comment.PostedAt,
		comment.ParentID,
		comment.ReplyIDs,
	)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	return nil
}

// Update refreshes the mutable fields of an existing comment. The parent
// column is deliberately absent from the SET list.
func (r *CommentPostgres) Update(ctx context.Context, comment *entity.Comment) error {
	query := `
		UPDATE comments
		SET username = $2, text = $3, like_count = $4, posted_at = $5,
		    reply_ids = $6, updated_at = NOW()
		WHERE external_id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		comment.ExternalID,
		comment.Username,
		comment.Text,
		comment.LikeCount,
		comment.PostedAt,
		comment.ReplyIDs,
	)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}

	return nil
}

// SetParentIfEmpty links a reply to its parent unless one is recorded
func (r *CommentPostgres) SetParentIfEmpty(ctx context.Context, externalID, parentID string) error {
	query := `
		UPDATE comments
		SET parent_external_id = $2, updated_at = NOW()
		WHERE external_id = $1 AND (parent_external_id IS NULL OR parent_external_id = '')
	`

	_, err := r.pool.Exec(ctx, query, externalID, parentID)
	if err != nil {
		return fmt.Errorf("linking parent: %w", err)
	}

	return nil
}

// ListByPost retrieves comments for a post, newest first
func (r *CommentPostgres) ListByPost(ctx context.Context, accountID, postExternalID string) ([]entity.Comment, error) {
	query := `
		SELECT external_id, account_id, post_external_id, author_id, username,
		       text, like_count, posted_at, parent_external_id, reply_ids
		FROM comments
		WHERE account_id = $1 AND post_external_id = $2
		ORDER BY posted_at DESC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, accountID, postExternalID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []entity.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		comments = append(comments, *comment)
	}

	return comments, nil
}

// CountByPost returns the number of stored comments for a post
func (r *CommentPostgres) CountByPost(ctx context.Context, accountID, postExternalID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM comments WHERE account_id = $1 AND post_external_id = $2",
		accountID, postExternalID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return count, nil
}

// DeleteByAccount removes all comments for an account
func (r *CommentPostgres) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM comments WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}
	return nil
}

func scanComment(row pgx.Row) (*entity.Comment, error) {
	var comment entity.Comment
	var parentID *string

	err := row.Scan(
		&comment.ExternalID,
		&comment.AccountID,
		&comment.PostExternalID,
		&comment.AuthorID,
		&comment.Username,
		&comment.Text,
		&comment.LikeCount,
		&comment.PostedAt,
		&parentID,
		&comment.ReplyIDs,
	)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		comment.ParentID = *parentID
	}

	return &comment, nil
}
