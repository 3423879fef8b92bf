package domain

import (
	"context"
	"time"
)

// PostRepository defines persistence operations for indexed posts.
type PostRepository interface {
	// CreatePost inserts a new post into the store. It is idempotent: a post
	// with a URI that's already stored is silently ignored, so replaying the
	// firehose from an old cursor never duplicates rows.
	CreatePost(ctx context.Context, post *Post) error

	// DeletePost removes a post by its AT-URI. Deleting a URI that was never
	// indexed (because no algorithm matched it) is a no-op, not an error.
	DeletePost(ctx context.Context, uri string) error

	// DeleteOldPosts removes posts with indexedAt older than olderThan.
	// Returns the number of rows deleted.
	DeleteOldPosts(ctx context.Context, olderThan time.Time) (int64, error)

	// FetchPostsByCountry retrieves posts authored by profiles living in the
	// given country, ordered by indexedAt descending then cid descending.
	// earlierThan, if non-nil, restricts results to posts strictly before
	// that position. Used by algorithms that gate on profile residency.
	FetchPostsByCountry(ctx context.Context, country string, limit int, earlierThan *FeedCursor) ([]Post, error)
}

// ProfileRepository defines persistence operations for profile enrichment.
type ProfileRepository interface {
	// EnsureProfile inserts a profile row if one doesn't already exist for
	// the DID. It never overwrites a profile that's already been recorded.
	EnsureProfile(ctx context.Context, did string) error

	// FetchUnprocessedDIDs returns up to limit DIDs whose profile hasn't
	// been classified yet.
	FetchUnprocessedDIDs(ctx context.Context, limit int) ([]string, error)

	// StoreClassification marks a profile processed and records the country
	// the classifier determined (or "xx" if it couldn't).
	StoreClassification(ctx context.Context, did, country string) error

	// ForceCountry inserts the profile if absent and then sets its country
	// and processed flag, overwriting any previous classification. Used by
	// the manual override tool, not the classifier loop.
	ForceCountry(ctx context.Context, did, country string) error

	// IsInCountry reports whether the given DID has been classified as
	// living in country. A profile that hasn't been processed yet, or that
	// the classifier couldn't place, reports false.
	IsInCountry(ctx context.Context, did, country string) (bool, error)
}

// CursorRepository defines persistence operations for firehose subscription
// cursors, keyed by service name and firehose host so that multiple
// consumers of the same host (or the same consumer against multiple hosts)
// don't clobber each other's progress.
type CursorRepository interface {
	// GetCursor retrieves the last-processed sequence number for the given
	// service/host pair. Returns 0 and ok=false if none has been saved yet.
	GetCursor(ctx context.Context, service, host string) (seq int64, ok bool, err error)

	// UpdateCursor persists the sequence number so we can resume on restart.
	UpdateCursor(ctx context.Context, service, host string, seq int64) error
}
