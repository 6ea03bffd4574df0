package entity

import (
	"time"
)

// Account represents one tracked Instagram business account.
// Every other stored entity belongs to exactly one account; deleting the
// account cascades to its posts, comments, users, stories and demographics.
type Account struct {
	ExternalID string    `json:"external_id"` // ID assigned by the Graph API
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
}

// Credential is the access token used for upstream API calls.
// At most one credential exists system-wide at any time: storing a new one
// atomically supersedes the previous one.
type Credential struct {
	Token     string    `json:"-"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
