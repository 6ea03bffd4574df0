package entity

import (
	"time"
)

// Post represents a synced Instagram post with its lifetime engagement
// metrics. Posts are upserted by ExternalID: a re-sync overwrites the
// metric, caption and timestamp fields on the existing row.
type Post struct {
	ExternalID   string     `json:"external_id"`
	AccountID    string     `json:"account_id"`
	PostedAt     *time.Time `json:"posted_at,omitempty"` // nil when the source timestamp is missing
	Permalink    string     `json:"permalink"`
	Caption      string     `json:"caption"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	ShareCount   int        `json:"share_count"`
	SaveCount    int        `json:"save_count"`
}

// Metrics holds the four lifetime insight values for a post.
//
// The Graph API returns these positionally: entries 0..3 are likes,
// comments, saved and shares in that fixed order. Decoding is by position,
// not by name, matching the upstream contract.
type Metrics struct {
	Likes    int
	Comments int
	Saves    int
	Shares   int
}
