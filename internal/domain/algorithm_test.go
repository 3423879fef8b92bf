package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAlgorithm struct {
	name    string
	matches bool
}

func (s *stubAlgorithm) Name() string { return s.name }

func (s *stubAlgorithm) ShouldIndex(ctx context.Context, authorDID string, post PostRecord) (bool, error) {
	return s.matches, nil
}

func (s *stubAlgorithm) FetchPosts(ctx context.Context, limit int, earlierThan *FeedCursor) ([]Post, error) {
	return nil, nil
}

func TestRegistryPreservesInsertionOrder(t *testing.T) {
	registry := NewRegistryBuilder().
		Add(&stubAlgorithm{name: "first"}).
		Add(&stubAlgorithm{name: "second"}).
		Add(&stubAlgorithm{name: "third"}).
		Build()

	assert.Equal(t, []string{"first", "second", "third"}, registry.Names())

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Name())
	assert.Equal(t, "third", all[2].Name())
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistryBuilder().
		Add(&stubAlgorithm{name: "nederlandskie"}).
		Build()

	algo, ok := registry.Get("nederlandskie")
	require.True(t, ok)
	assert.Equal(t, "nederlandskie", algo.Name())

	_, ok = registry.Get("does-not-exist")
	assert.False(t, ok)
}

func TestRegistryBuilderPanicsOnDuplicateName(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistryBuilder().
			Add(&stubAlgorithm{name: "dup"}).
			Add(&stubAlgorithm{name: "dup"})
	})
}
