// Package postgres implements the domain storage ports against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vanrijn/nederlandskie/internal/domain"
)

// Repository implements domain.PostRepository, domain.ProfileRepository and
// domain.CursorRepository against a single PostgreSQL database.
type Repository struct {
	db *sql.DB
}

// NewRepository connects to PostgreSQL at the given URL, verifies the
// connection, and returns a new Repository. The caller should call Close
// when the repository is no longer needed.
func NewRepository(databaseURL string) (*Repository, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreatePost inserts a new post. It's idempotent on uri, so replaying the
// firehose from an old cursor never duplicates a row.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (uri, author_did, cid, indexed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uri) DO NOTHING`,
		post.URI, post.AuthorDID, post.CID, post.IndexedAt,
	)
	return err
}

// DeletePost removes a post by URI. Deleting a URI that was never indexed
// is a no-op.
func (r *Repository) DeletePost(ctx context.Context, uri string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE uri = $1`, uri)
	return err
}

// DeleteOldPosts removes posts with indexed_at older than olderThan.
func (r *Repository) DeleteOldPosts(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE indexed_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete old posts: %w", err)
	}
	return res.RowsAffected()
}

// FetchPostsByCountry retrieves posts authored by profiles classified as
// living in country, most recent first.
func (r *Repository) FetchPostsByCountry(ctx context.Context, country string, limit int, earlierThan *domain.FeedCursor) ([]domain.Post, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if earlierThan != nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT p.uri, p.author_did, p.cid, p.indexed_at
			FROM posts p
			INNER JOIN profiles pr ON pr.did = p.author_did
			WHERE pr.likely_country_of_living = $1
			  AND (p.indexed_at, p.cid) < ($2, $3)
			ORDER BY p.indexed_at DESC, p.cid DESC
			LIMIT $4`,
			country, earlierThan.IndexedAt, earlierThan.CID, limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT p.uri, p.author_did, p.cid, p.indexed_at
			FROM posts p
			INNER JOIN profiles pr ON pr.did = p.author_did
			WHERE pr.likely_country_of_living = $1
			ORDER BY p.indexed_at DESC, p.cid DESC
			LIMIT $2`,
			country, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query posts by country %s: %w", country, err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.URI, &p.AuthorDID, &p.CID, &p.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// EnsureProfile inserts a profile row if one doesn't already exist.
func (r *Repository) EnsureProfile(ctx context.Context, did string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (did, first_seen_at)
		VALUES ($1, $2)
		ON CONFLICT (did) DO NOTHING`,
		did, time.Now().UTC(),
	)
	return err
}

// FetchUnprocessedDIDs returns up to limit DIDs awaiting classification.
func (r *Repository) FetchUnprocessedDIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT did FROM profiles
		WHERE has_been_processed = FALSE
		ORDER BY first_seen_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed profiles: %w", err)
	}
	defer rows.Close()

	var dids []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, fmt.Errorf("scan did: %w", err)
		}
		dids = append(dids, did)
	}
	return dids, rows.Err()
}

// StoreClassification marks a profile processed with the given country.
func (r *Repository) StoreClassification(ctx context.Context, did, country string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET has_been_processed = TRUE, likely_country_of_living = $2
		WHERE did = $1`,
		did, country,
	)
	return err
}

// ForceCountry inserts the profile if absent, then overwrites its
// classification unconditionally.
func (r *Repository) ForceCountry(ctx context.Context, did, country string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (did, first_seen_at)
		VALUES ($1, $2)
		ON CONFLICT (did) DO NOTHING`,
		did, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET has_been_processed = TRUE, likely_country_of_living = $2
		WHERE did = $1`,
		did, country,
	); err != nil {
		return fmt.Errorf("set country: %w", err)
	}

	return tx.Commit()
}

// IsInCountry reports whether did has been classified as living in country.
func (r *Repository) IsInCountry(ctx context.Context, did, country string) (bool, error) {
	var matches bool
	err := r.db.QueryRowContext(ctx, `
		SELECT likely_country_of_living = $2
		FROM profiles
		WHERE did = $1 AND has_been_processed = TRUE`,
		did, country,
	).Scan(&matches)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query profile country: %w", err)
	}
	return matches, nil
}

// GetCursor retrieves the saved firehose cursor for a service/host pair.
func (r *Repository) GetCursor(ctx context.Context, service, host string) (int64, bool, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx,
		`SELECT seq FROM subscription_cursors WHERE service = $1 AND host = $2`, service, host,
	).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query cursor: %w", err)
	}
	return seq, true, nil
}

// UpdateCursor upserts the firehose cursor for a service/host pair.
func (r *Repository) UpdateCursor(ctx context.Context, service, host string, seq int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_cursors (service, host, seq, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (service, host) DO UPDATE SET seq = $3, updated_at = $4`,
		service, host, seq, time.Now().UTC(),
	)
	return err
}
