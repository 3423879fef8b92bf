package postgres

import (
	"context"
	"fmt"
)

// schema is applied once at startup by cmd/indexer; the other cmd/
// entrypoints that touch storage expect it to be in place already. It's
// idempotent so running it on an already-migrated database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS posts (
	uri TEXT PRIMARY KEY,
	author_did TEXT NOT NULL,
	cid TEXT NOT NULL,
	indexed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_indexed_at_cid ON posts (indexed_at DESC, cid DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author_did ON posts (author_did);

CREATE TABLE IF NOT EXISTS profiles (
	did TEXT PRIMARY KEY,
	first_seen_at TIMESTAMPTZ NOT NULL,
	has_been_processed BOOLEAN NOT NULL DEFAULT FALSE,
	likely_country_of_living TEXT
);
CREATE INDEX IF NOT EXISTS idx_profiles_unprocessed ON profiles (first_seen_at) WHERE has_been_processed = FALSE;

CREATE TABLE IF NOT EXISTS subscription_cursors (
	service TEXT NOT NULL,
	host TEXT NOT NULL,
	seq BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (service, host)
);
`

// EnsureSchema creates the tables and indexes this repository depends on if
// they don't already exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
