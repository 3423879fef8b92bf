package domain

import (
	"context"
	"time"
)

// fakePostRepository is an in-memory PostRepository used by domain-level
// tests so they exercise IndexingProcessor/FeedService behavior without a
// real database.
type fakePostRepository struct {
	byURI     map[string]*Post
	createErr error
}

func newFakePostRepository() *fakePostRepository {
	return &fakePostRepository{byURI: make(map[string]*Post)}
}

func (r *fakePostRepository) CreatePost(ctx context.Context, post *Post) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byURI[post.URI]; exists {
		return nil
	}
	cp := *post
	r.byURI[post.URI] = &cp
	return nil
}

func (r *fakePostRepository) DeletePost(ctx context.Context, uri string) error {
	delete(r.byURI, uri)
	return nil
}

func (r *fakePostRepository) DeleteOldPosts(ctx context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	for uri, p := range r.byURI {
		if p.IndexedAt.Before(olderThan) {
			delete(r.byURI, uri)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakePostRepository) FetchPostsByCountry(ctx context.Context, country string, limit int, earlierThan *FeedCursor) ([]Post, error) {
	return nil, nil
}

// fakeProfileRepository is an in-memory ProfileRepository.
type fakeProfileRepository struct {
	profiles map[string]*Profile
}

func newFakeProfileRepository() *fakeProfileRepository {
	return &fakeProfileRepository{profiles: make(map[string]*Profile)}
}

func (r *fakeProfileRepository) EnsureProfile(ctx context.Context, did string) error {
	if _, exists := r.profiles[did]; exists {
		return nil
	}
	r.profiles[did] = &Profile{DID: did, FirstSeenAt: time.Now().UTC()}
	return nil
}

func (r *fakeProfileRepository) FetchUnprocessedDIDs(ctx context.Context, limit int) ([]string, error) {
	var dids []string
	for did, p := range r.profiles {
		if !p.Processed {
			dids = append(dids, did)
		}
		if len(dids) == limit {
			break
		}
	}
	return dids, nil
}

func (r *fakeProfileRepository) StoreClassification(ctx context.Context, did, country string) error {
	p, exists := r.profiles[did]
	if !exists {
		p = &Profile{DID: did, FirstSeenAt: time.Now().UTC()}
		r.profiles[did] = p
	}
	p.Processed = true
	p.LikelyCountryOfLiving = &country
	return nil
}

func (r *fakeProfileRepository) ForceCountry(ctx context.Context, did, country string) error {
	return r.StoreClassification(ctx, did, country)
}

func (r *fakeProfileRepository) IsInCountry(ctx context.Context, did, country string) (bool, error) {
	p, exists := r.profiles[did]
	if !exists || p.LikelyCountryOfLiving == nil {
		return false, nil
	}
	return *p.LikelyCountryOfLiving == country, nil
}

// fakeCursorRepository is an in-memory CursorRepository.
type fakeCursorRepository struct {
	cursors map[string]int64
}

func newFakeCursorRepository() *fakeCursorRepository {
	return &fakeCursorRepository{cursors: make(map[string]int64)}
}

func (r *fakeCursorRepository) key(service, host string) string { return service + "::" + host }

func (r *fakeCursorRepository) GetCursor(ctx context.Context, service, host string) (int64, bool, error) {
	seq, ok := r.cursors[r.key(service, host)]
	return seq, ok, nil
}

func (r *fakeCursorRepository) UpdateCursor(ctx context.Context, service, host string, seq int64) error {
	r.cursors[r.key(service, host)] = seq
	return nil
}
