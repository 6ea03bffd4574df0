package entity

import (
	"time"
)

// Story represents an active ephemeral post. Stories expire upstream, so
// the stored set for an account is a snapshot: each successful sync fully
// replaces it, and a sync that finds no active stories clears it.
type Story struct {
	ExternalID        string     `json:"external_id"`
	AccountID         string     `json:"account_id"`
	PostedAt          *time.Time `json:"posted_at,omitempty"`
	Permalink         string     `json:"permalink"`
	ViewCount         int        `json:"view_count"`
	ProfileClickCount int        `json:"profile_click_count"`
	SwipeUpCount      int        `json:"swipe_up_count"`
	ReplyCount        int        `json:"reply_count"` // always zero, no API support
}
