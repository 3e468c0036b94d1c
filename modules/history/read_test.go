package history

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is an in-memory CacheStore for tests.
type mapCache struct {
	data map[string][]byte
	gets int
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.gets++
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	c.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestReadService_CacheAside(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	cache := newMapCache()
	reader := NewReadService(store, cache)

	require.NoError(t, store.AppendStroke(ctx, testStroke("room1", "s1")))

	// First read misses and fills the cache.
	strokes, err := reader.Strokes(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	assert.Equal(t, 1, cache.sets)

	// A write bypassing the reader is invisible until invalidation.
	require.NoError(t, store.AppendStroke(ctx, testStroke("room1", "s2")))
	strokes, err = reader.Strokes(ctx, "room1")
	require.NoError(t, err)
	assert.Len(t, strokes, 1)

	reader.Invalidate(ctx, "room1")
	strokes, err = reader.Strokes(ctx, "room1")
	require.NoError(t, err)
	assert.Len(t, strokes, 2)
}

func TestReadService_NilCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	reader := NewReadService(store, nil)

	require.NoError(t, store.AppendStroke(ctx, testStroke("room1", "s1")))

	strokes, err := reader.Strokes(ctx, "room1")
	require.NoError(t, err)
	assert.Len(t, strokes, 1)

	// Reads always hit the store; writes are visible immediately.
	require.NoError(t, store.AppendStroke(ctx, testStroke("room1", "s2")))
	strokes, err = reader.Strokes(ctx, "room1")
	require.NoError(t, err)
	assert.Len(t, strokes, 2)

	reader.Invalidate(ctx, "room1")

	messages, err := reader.Messages(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
