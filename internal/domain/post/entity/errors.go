package entity

import "errors"

// Domain errors for posts
var (
	ErrPostNotFound = errors.New("post not found")

	// ErrNoInsights marks a post whose insight fetch returned an empty
	// metric collection (seen for posts predating the business-account
	// conversion). Such posts are skipped, not stored.
	ErrNoInsights = errors.New("no insight metrics available for post")

	// ErrMalformedInsights marks an insight payload with fewer than the
	// four expected positional entries.
	ErrMalformedInsights = errors.New("insight payload is missing expected metrics")
)
