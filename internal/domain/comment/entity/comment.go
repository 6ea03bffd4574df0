package entity

import (
	"time"
)

// Comment represents a synced Instagram comment. Comments are upserted by
// ExternalID. ParentID follows a first-writer-wins rule: once set it is
// never overwritten by a later sync pass.
type Comment struct {
	ExternalID     string     `json:"external_id"`
	AccountID      string     `json:"account_id"`
	PostExternalID string     `json:"post_external_id"`
	AuthorID       string     `json:"author_id"`
	Username       string     `json:"username"`
	Text           string     `json:"text"`
	LikeCount      int        `json:"like_count"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	ParentID       string     `json:"parent_id,omitempty"` // empty means top-level
	ReplyIDs       []string   `json:"reply_ids,omitempty"` // as reported by the API, not necessarily stored yet
}

// User is a comment author. CommentCount is incremented exactly once per
// distinct new comment the user authors, never on a re-sync of an existing
// comment, and never decremented.
type User struct {
	ExternalID   string `json:"external_id"`
	AccountID    string `json:"account_id"`
	Username     string `json:"username"`
	CommentCount int    `json:"comment_count"`
}
