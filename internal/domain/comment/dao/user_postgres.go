package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/domain/comment/entity"
)

// UserRepository defines the interface for comment-author storage
type UserRepository interface {
	// GetByID retrieves a user by external ID, nil when absent
	GetByID(ctx context.Context, externalID string) (*entity.User, error)
	// Create inserts a new user with a zero comment count
	Create(ctx context.Context, user *entity.User) error
	// UpdateUsername refreshes the stored username
	UpdateUsername(ctx context.Context, externalID, username string) error
	// IncrementCommentCount adds one to the user's comment count
	IncrementCommentCount(ctx context.Context, externalID string) error
	// ListByAccount retrieves users for an account ordered by comment count
	ListByAccount(ctx context.Context, accountID string) ([]entity.User, error)
	// DeleteByAccount removes all users for an account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// UserPostgres implements UserRepository for PostgreSQL
type UserPostgres struct {
	pool *pgxpool.Pool
}

// NewUserPostgres creates a new PostgreSQL user repository
func NewUserPostgres(pool *pgxpool.Pool) *UserPostgres {
	return &UserPostgres{pool: pool}
}

// GetByID retrieves a user by external ID
func (r *UserPostgres) GetByID(ctx context.Context, externalID string) (*entity.User, error) {
	query := `
		SELECT external_id, account_id, username, comment_count
		FROM ig_users
		WHERE external_id = $1
	`

	var user entity.User
	err := r.pool.QueryRow(ctx, query, externalID).Scan(
		&user.ExternalID,
		&user.AccountID,
		&user.Username,
		&user.CommentCount,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return &user, nil
}

// Create inserts a new user
func (r *UserPostgres) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO ig_users (external_id, account_id, username, comment_count)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ExternalID,
		user.AccountID,
		user.Username,
		user.CommentCount,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// UpdateUsername refreshes the stored username
func (r *UserPostgres) UpdateUsername(ctx context.Context, externalID, username string) error {
	query := "UPDATE ig_users SET username = $2 WHERE external_id = $1"
	_, err := r.pool.Exec(ctx, query, externalID, username)
	if err != nil {
		return fmt.Errorf("updating username: %w", err)
	}
	return nil
}

// IncrementCommentCount adds one to the user's comment count
func (r *UserPostgres) IncrementCommentCount(ctx context.Context, externalID string) error {
	query := "UPDATE ig_users SET comment_count = comment_count + 1 WHERE external_id = $1"
	_, err := r.pool.Exec(ctx, query, externalID)
	if err != nil {
		return fmt.Errorf("incrementing comment count: %w", err)
	}
	return nil
}

// ListByAccount retrieves users for an account ordered by comment count
func (r *UserPostgres) ListByAccount(ctx context.Context, accountID string) ([]entity.User, error) {
	query := `
		SELECT external_id, account_id, username, comment_count
		FROM ig_users
		WHERE account_id = $1
		ORDER BY comment_count DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		var user entity.User
		if err := rows.Scan(&user.ExternalID, &user.AccountID, &user.Username, &user.CommentCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// DeleteByAccount removes all users for an account
func (r *UserPostgres) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM ig_users WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("deleting users: %w", err)
	}
	return nil
}
