package algos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanrijn/nederlandskie/internal/domain"
)

type stubDetector struct {
	code string
	ok   bool
}

func (d *stubDetector) DetectLanguage(text string) (string, bool) { return d.code, d.ok }

type stubProfiles struct {
	resident bool
	err      error
}

func (s *stubProfiles) EnsureProfile(ctx context.Context, did string) error { return nil }

func (s *stubProfiles) FetchUnprocessedDIDs(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

func (s *stubProfiles) StoreClassification(ctx context.Context, did, country string) error {
	return nil
}

func (s *stubProfiles) ForceCountry(ctx context.Context, did, country string) error { return nil }

func (s *stubProfiles) IsInCountry(ctx context.Context, did, country string) (bool, error) {
	return s.resident, s.err
}

type stubPosts struct {
	fetchedCountry string
}

func (s *stubPosts) CreatePost(ctx context.Context, post *domain.Post) error { return nil }
func (s *stubPosts) DeletePost(ctx context.Context, uri string) error       { return nil }
func (s *stubPosts) DeleteOldPosts(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}
func (s *stubPosts) FetchPostsByCountry(ctx context.Context, country string, limit int, earlierThan *domain.FeedCursor) ([]domain.Post, error) {
	s.fetchedCountry = country
	return nil, nil
}

func TestNederlandskieShouldIndexRussianText(t *testing.T) {
	detector := &stubDetector{code: "ru", ok: true}
	profiles := &stubProfiles{resident: false}
	algo := NewNederlandskie(detector, profiles, nil)

	matched, err := algo.ShouldIndex(context.Background(), "did:plc:abc", domain.PostRecord{Text: "привет"})
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestNederlandskieShouldIndexDutchResident(t *testing.T) {
	detector := &stubDetector{code: "en", ok: true}
	profiles := &stubProfiles{resident: true}
	algo := NewNederlandskie(detector, profiles, nil)

	matched, err := algo.ShouldIndex(context.Background(), "did:plc:abc", domain.PostRecord{Text: "hello world"})
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestNederlandskieShouldNotIndexUnrelatedPost(t *testing.T) {
	detector := &stubDetector{code: "en", ok: true}
	profiles := &stubProfiles{resident: false}
	algo := NewNederlandskie(detector, profiles, nil)

	matched, err := algo.ShouldIndex(context.Background(), "did:plc:abc", domain.PostRecord{Text: "hello world"})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestNederlandskieName(t *testing.T) {
	algo := NewNederlandskie(nil, nil, nil)
	assert.Equal(t, "nederlandskie", algo.Name())
}

func TestNederlandskieFetchPostsDelegatesToCountryQuery(t *testing.T) {
	posts := &stubPosts{}
	algo := NewNederlandskie(nil, nil, posts)

	_, err := algo.FetchPosts(context.Background(), 20, nil)
	require.NoError(t, err)
	assert.Equal(t, "nl", posts.fetchedCountry)
}
