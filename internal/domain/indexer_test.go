package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessCommitCreatePostMatchedByAlgorithm(t *testing.T) {
	registry := NewRegistryBuilder().Add(&stubAlgorithm{name: "nederlandskie", matches: true}).Build()
	posts := newFakePostRepository()
	profiles := newFakeProfileRepository()
	cursors := newFakeCursorRepository()

	processor := NewIndexingProcessor(registry, posts, profiles, cursors, "indexer", "bsky.network", discardLogger())

	commit := CommitDetails{
		Seq: 1,
		Operations: []Operation{
			CreatePost{
				URI:       "at://did:plc:abc/app.bsky.feed.post/1",
				CID:       "bafycid1",
				AuthorDID: "did:plc:abc",
				Record:    PostRecord{Text: "привет мир"},
			},
		},
	}

	err := processor.ProcessCommit(context.Background(), commit)
	require.NoError(t, err)

	stored, ok := posts.byURI["at://did:plc:abc/app.bsky.feed.post/1"]
	require.True(t, ok)
	assert.Equal(t, "did:plc:abc", stored.AuthorDID)

	_, ok = profiles.profiles["did:plc:abc"]
	assert.True(t, ok, "profile should be ensured when a post is indexed")
}

func TestProcessCommitCreatePostNotMatched(t *testing.T) {
	registry := NewRegistryBuilder().Add(&stubAlgorithm{name: "nederlandskie", matches: false}).Build()
	posts := newFakePostRepository()
	profiles := newFakeProfileRepository()
	cursors := newFakeCursorRepository()

	processor := NewIndexingProcessor(registry, posts, profiles, cursors, "indexer", "bsky.network", discardLogger())

	commit := CommitDetails{
		Seq: 1,
		Operations: []Operation{
			CreatePost{
				URI:       "at://did:plc:abc/app.bsky.feed.post/1",
				AuthorDID: "did:plc:abc",
				Record:    PostRecord{Text: "hello world"},
			},
		},
	}

	err := processor.ProcessCommit(context.Background(), commit)
	require.NoError(t, err)

	assert.Empty(t, posts.byURI)
	assert.Empty(t, profiles.profiles)
}

func TestProcessCommitDeletePost(t *testing.T) {
	registry := NewRegistryBuilder().Add(&stubAlgorithm{name: "nederlandskie", matches: true}).Build()
	posts := newFakePostRepository()
	posts.byURI["at://did:plc:abc/app.bsky.feed.post/1"] = &Post{URI: "at://did:plc:abc/app.bsky.feed.post/1"}
	profiles := newFakeProfileRepository()
	cursors := newFakeCursorRepository()

	processor := NewIndexingProcessor(registry, posts, profiles, cursors, "indexer", "bsky.network", discardLogger())

	commit := CommitDetails{
		Seq:        2,
		Operations: []Operation{DeletePost{URI: "at://did:plc:abc/app.bsky.feed.post/1"}},
	}

	err := processor.ProcessCommit(context.Background(), commit)
	require.NoError(t, err)
	assert.Empty(t, posts.byURI)
}

func TestProcessCommitFlushesCursorOnInterval(t *testing.T) {
	registry := NewRegistryBuilder().Build()
	posts := newFakePostRepository()
	profiles := newFakeProfileRepository()
	cursors := newFakeCursorRepository()

	processor := NewIndexingProcessor(registry, posts, profiles, cursors, "indexer", "bsky.network", discardLogger())

	require.NoError(t, processor.ProcessCommit(context.Background(), CommitDetails{Seq: 19}))
	seq, ok, err := cursors.GetCursor(context.Background(), "indexer", "bsky.network")
	require.NoError(t, err)
	assert.False(t, ok, "cursor should not be flushed until seq is a multiple of 20")

	require.NoError(t, processor.ProcessCommit(context.Background(), CommitDetails{Seq: 20}))
	seq, ok, err = cursors.GetCursor(context.Background(), "indexer", "bsky.network")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 20, seq)
}

func TestProcessCommitAbortsAndDoesNotAdvanceCursorOnStorageError(t *testing.T) {
	registry := NewRegistryBuilder().Add(&stubAlgorithm{name: "nederlandskie", matches: true}).Build()
	posts := newFakePostRepository()
	posts.createErr = errors.New("connection reset")
	profiles := newFakeProfileRepository()
	cursors := newFakeCursorRepository()

	processor := NewIndexingProcessor(registry, posts, profiles, cursors, "indexer", "bsky.network", discardLogger())

	commit := CommitDetails{
		Seq: 20,
		Operations: []Operation{
			CreatePost{
				URI:       "at://did:plc:abc/app.bsky.feed.post/1",
				AuthorDID: "did:plc:abc",
				Record:    PostRecord{Text: "привет мир"},
			},
		},
	}

	err := processor.ProcessCommit(context.Background(), commit)
	require.Error(t, err)

	_, ok, cursorErr := cursors.GetCursor(context.Background(), "indexer", "bsky.network")
	require.NoError(t, cursorErr)
	assert.False(t, ok, "a commit that failed to store must not advance the cursor, even at a flush boundary")
}

func TestProcessCommitLikesAndFollowsAreNoOps(t *testing.T) {
	registry := NewRegistryBuilder().Build()
	posts := newFakePostRepository()
	profiles := newFakeProfileRepository()
	cursors := newFakeCursorRepository()

	processor := NewIndexingProcessor(registry, posts, profiles, cursors, "indexer", "bsky.network", discardLogger())

	commit := CommitDetails{
		Seq: 1,
		Operations: []Operation{
			CreateLike{URI: "at://did:plc:abc/app.bsky.feed.like/1", AuthorDID: "did:plc:abc"},
			CreateFollow{URI: "at://did:plc:abc/app.bsky.graph.follow/1", AuthorDID: "did:plc:abc"},
			DeleteLike{URI: "at://did:plc:abc/app.bsky.feed.like/1"},
			DeleteFollow{URI: "at://did:plc:abc/app.bsky.graph.follow/1"},
		},
	}

	err := processor.ProcessCommit(context.Background(), commit)
	require.NoError(t, err)
	assert.Empty(t, posts.byURI)
}
