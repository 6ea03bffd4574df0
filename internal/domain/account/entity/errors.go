package entity

import "errors"

// Domain errors for accounts and credentials
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already registered")
	ErrCredentialNotFound = errors.New("no access token stored, add a credential first")
	ErrCredentialMismatch = errors.New("stored credential belongs to another account")
	ErrEmptyToken         = errors.New("access token cannot be empty")
	ErrEmptyAccountID     = errors.New("account ID is required")
)
