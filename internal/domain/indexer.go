package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// cursorFlushInterval is how many commits pass between cursor persists, so a
// restart replays at most this many commits rather than every commit costing
// a round trip to storage.
const cursorFlushInterval = 20

// IndexingProcessor is the core domain service driving indexing: it turns
// each post created in a firehose commit into zero or one stored post, using
// the first algorithm in the registry that claims it.
type IndexingProcessor struct {
	registry *Registry
	posts    PostRepository
	profiles ProfileRepository
	cursors  CursorRepository
	service  string
	host     string
	logger   *slog.Logger
}

// NewIndexingProcessor builds an IndexingProcessor. service/host identify
// this consumer's cursor row; they're typically the process name and the
// firehose host being subscribed to.
func NewIndexingProcessor(
	registry *Registry,
	posts PostRepository,
	profiles ProfileRepository,
	cursors CursorRepository,
	service, host string,
	logger *slog.Logger,
) *IndexingProcessor {
	return &IndexingProcessor{
		registry: registry,
		posts:    posts,
		profiles: profiles,
		cursors:  cursors,
		service:  service,
		host:     host,
		logger:   logger,
	}
}

// Cursor returns the last persisted sequence number for this processor's
// service/host, or 0 if none has been saved yet.
func (p *IndexingProcessor) Cursor(ctx context.Context) (int64, error) {
	seq, _, err := p.cursors.GetCursor(ctx, p.service, p.host)
	return seq, err
}

// ProcessCommit applies every operation in a single commit. Post creation
// stops at the first matching algorithm; matching a post inserts its
// author's profile (if not already known) before the post itself, so
// foreign-key lookups by the classifier always find a row. Deletes are
// unconditional since an algorithm that didn't index a post never stored it,
// and DeletePost is safe to call on a URI that was never indexed.
//
// Any storage or algorithm error aborts the commit immediately and
// propagates to the caller without touching the cursor, so a commit that
// only partly applied is never marked as fully processed; the caller (the
// subscriber) logs it and moves on to the next message without advancing
// past it.
func (p *IndexingProcessor) ProcessCommit(ctx context.Context, commit CommitDetails) error {
	for _, op := range commit.Operations {
		if err := p.processOperation(ctx, op); err != nil {
			return fmt.Errorf("process operation %s: %w", op.OperationURI(), err)
		}
	}

	if commit.Seq%cursorFlushInterval == 0 {
		if err := p.cursors.UpdateCursor(ctx, p.service, p.host, commit.Seq); err != nil {
			return fmt.Errorf("update cursor: %w", err)
		}
	}

	return nil
}

func (p *IndexingProcessor) processOperation(ctx context.Context, op Operation) error {
	switch o := op.(type) {
	case CreatePost:
		return p.processCreatePost(ctx, o)
	case DeletePost:
		return p.posts.DeletePost(ctx, o.URI)
	case CreateLike, CreateFollow, DeleteLike, DeleteFollow:
		// Only posts are indexed; likes and follows pass through the
		// decoder so future algorithms can use them, but no algorithm does
		// today.
		return nil
	default:
		return fmt.Errorf("unhandled operation type %T", op)
	}
}

func (p *IndexingProcessor) processCreatePost(ctx context.Context, op CreatePost) error {
	for _, algo := range p.registry.All() {
		matched, err := algo.ShouldIndex(ctx, op.AuthorDID, op.Record)
		if err != nil {
			return fmt.Errorf("algorithm %s evaluate post %s: %w", algo.Name(), op.URI, err)
		}
		if !matched {
			continue
		}

		if err := p.profiles.EnsureProfile(ctx, op.AuthorDID); err != nil {
			return fmt.Errorf("ensure profile %s: %w", op.AuthorDID, err)
		}

		post := &Post{
			URI:       op.URI,
			AuthorDID: op.AuthorDID,
			CID:       op.CID,
			IndexedAt: time.Now().UTC(),
		}
		if err := p.posts.CreatePost(ctx, post); err != nil {
			return fmt.Errorf("create post %s: %w", op.URI, err)
		}

		p.logger.Info("indexed post", "algorithm", algo.Name(), "uri", op.URI, "author", op.AuthorDID)
		return nil
	}

	return nil
}
