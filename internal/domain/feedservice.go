package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// ErrFeedNotFound is returned by FeedService.GetFeedSkeleton when the
// requested feed URI doesn't name a registered algorithm.
var ErrFeedNotFound = fmt.Errorf("unknown feed")

// FeedService serves feed skeletons and generator metadata from a fixed
// algorithm registry. Unlike IndexingProcessor it never writes; it only
// reads whatever the indexing processor and classifier have already stored.
type FeedService struct {
	registry     *Registry
	publisherDID string
	logger       *slog.Logger
}

// NewFeedService creates a FeedService. publisherDID is the DID that
// published the app.bsky.feed.generator records, used to build feed URIs.
func NewFeedService(registry *Registry, publisherDID string, logger *slog.Logger) *FeedService {
	return &FeedService{registry: registry, publisherDID: publisherDID, logger: logger}
}

// FeedURI builds the AT-URI of the generator record for a registered
// algorithm name.
func (s *FeedService) FeedURI(name string) string {
	return fmt.Sprintf("at://%s/app.bsky.feed.generator/%s", s.publisherDID, name)
}

// FeedURIs returns the AT-URIs of every registered feed, in registration
// order.
func (s *FeedService) FeedURIs() []string {
	names := s.registry.Names()
	uris := make([]string, len(names))
	for i, name := range names {
		uris[i] = s.FeedURI(name)
	}
	return uris
}

// feedNameFromURI extracts the rkey (last path segment) from a feed
// generator AT-URI.
func feedNameFromURI(feedURI string) string {
	for i := len(feedURI) - 1; i >= 0; i-- {
		if feedURI[i] == '/' {
			return feedURI[i+1:]
		}
	}
	return feedURI
}

// GetFeedSkeleton returns a page of results for the named feed. limit and
// cursor come straight from the getFeedSkeleton query string: cursor empty
// means the first page.
func (s *FeedService) GetFeedSkeleton(ctx context.Context, feedURI string, limit int, cursor string) (*FeedSkeleton, error) {
	name := feedNameFromURI(feedURI)
	algo, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, feedURI)
	}

	var earlierThan *FeedCursor
	if cursor != "" {
		parsed, err := ParseCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("parse cursor: %w", err)
		}
		earlierThan = &parsed
	}

	posts, err := algo.FetchPosts(ctx, limit, earlierThan)
	if err != nil {
		return nil, fmt.Errorf("fetch posts for %s: %w", name, err)
	}

	skeleton := &FeedSkeleton{
		Posts: make([]SkeletonPost, len(posts)),
	}
	for i, p := range posts {
		skeleton.Posts[i] = SkeletonPost{Post: p.URI}
	}
	if len(posts) == limit {
		last := posts[len(posts)-1]
		skeleton.Cursor = MakeCursor(last.IndexedAt, last.CID)
	}

	return skeleton, nil
}
