package embedcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/embedcache"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{1, 2, 3}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "counting-model"
}

func TestLruEmbedderCachesRepeatedText(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embedcache.WrapLruCacheToEmbedder(inner, 16, time.Hour)

	first, err := cached.Embed(context.Background(), "same text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "same text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestLruEmbedderKeyIncludesTaskType(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embedcache.WrapLruCacheToEmbedder(inner, 16, time.Hour)

	_, err := cached.Embed(context.Background(), "same text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "same text", "RETRIEVAL_QUERY")
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

func TestLruEmbedderCachedValueIsolation(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embedcache.WrapLruCacheToEmbedder(inner, 16, time.Hour)

	first, err := cached.Embed(context.Background(), "text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	first[0] = 99

	second, err := cached.Embed(context.Background(), "text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0])
}

func TestWrapDisabledWhenSizeZero(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, embedcache.WrapLruCacheToEmbedder(inner, 0, time.Hour))
}
