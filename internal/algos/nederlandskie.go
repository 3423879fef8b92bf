// Package algos holds concrete Algorithm implementations, built against the
// ports in internal/domain and wired into a domain.Registry at startup.
package algos

import (
	"context"
	"fmt"

	"github.com/vanrijn/nederlandskie/internal/domain"
	"github.com/vanrijn/nederlandskie/internal/langdetect"
)

const nederlandskieCountry = "nl"

// Nederlandskie indexes posts that are either written in Russian or
// authored by a profile the classifier has placed in the Netherlands,
// matching the reference feed this system was originally built to serve.
type Nederlandskie struct {
	detector langdetect.Detector
	profiles domain.ProfileRepository
	posts    domain.PostRepository
}

// NewNederlandskie builds the reference algorithm.
func NewNederlandskie(detector langdetect.Detector, profiles domain.ProfileRepository, posts domain.PostRepository) *Nederlandskie {
	return &Nederlandskie{detector: detector, profiles: profiles, posts: posts}
}

// Name implements domain.Algorithm.
func (a *Nederlandskie) Name() string { return "nederlandskie" }

// ShouldIndex implements domain.Algorithm. A post qualifies if either check
// succeeds; the language check never touches storage, so it runs first.
func (a *Nederlandskie) ShouldIndex(ctx context.Context, authorDID string, post domain.PostRecord) (bool, error) {
	if a.isRussian(post.Text) {
		return true, nil
	}

	resident, err := a.profiles.IsInCountry(ctx, authorDID, nederlandskieCountry)
	if err != nil {
		return false, fmt.Errorf("check profile residency: %w", err)
	}
	return resident, nil
}

func (a *Nederlandskie) isRussian(text string) bool {
	code, ok := a.detector.DetectLanguage(text)
	return ok && code == "ru"
}

// FetchPosts implements domain.Algorithm by delegating to the
// country-keyed query: every post this algorithm indexes was authored by a
// Dutch-resident profile or is itself in Russian, but the feed it serves is
// simply "posts by Dutch residents", matching the reference feed's intent.
func (a *Nederlandskie) FetchPosts(ctx context.Context, limit int, earlierThan *domain.FeedCursor) ([]domain.Post, error) {
	return a.posts.FetchPostsByCountry(ctx, nederlandskieCountry, limit, earlierThan)
}
