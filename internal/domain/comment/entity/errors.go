package entity

import "errors"

// Domain errors for comment synchronization
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrMissingAuthor marks a comment detail payload without an author id
	// or username. A comment without an identifiable author is not stored.
	ErrMissingAuthor = errors.New("comment has no identifiable author")

	// ErrPostMissing marks a comment whose owning post has no stored row.
	// The post must be synced before its comments.
	ErrPostMissing = errors.New("owning post is not stored")
)
