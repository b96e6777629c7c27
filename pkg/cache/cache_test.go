package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(10, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://img/1.png", Entry{ContentType: "image/png", Data: []byte{1, 2}}, time.Minute))

	e, ok, err := c.Get(ctx, "https://img/1.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "image/png", e.ContentType)
	assert.Equal(t, []byte{1, 2}, e.Data)

	require.NoError(t, c.Delete(ctx, "https://img/1.png"))
	_, ok, _ = c.Get(ctx, "https://img/1.png")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(10, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", Entry{Data: []byte{1}}, -time.Second))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_CleanupEvictsOverCapacity(t *testing.T) {
	c := NewMemoryCache(2, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", Entry{}, time.Minute))
	require.NoError(t, c.Set(ctx, "b", Entry{}, 2*time.Minute))
	require.NoError(t, c.Set(ctx, "c", Entry{}, 3*time.Minute))
	require.NoError(t, c.Set(ctx, "expired", Entry{}, -time.Minute))
	c.cleanup()

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "b")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "expired")
	assert.False(t, ok)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func newSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "images.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Init(context.Background()))
	return c
}

func TestSQLiteCache_SetGetUpsert(t *testing.T) {
	c := newSQLiteCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://img/1.png", Entry{ContentType: "image/png", Data: []byte{1}}, time.Hour))
	require.NoError(t, c.Set(ctx, "https://img/1.png", Entry{ContentType: "image/jpeg", Data: []byte{2, 3}}, time.Hour))

	e, ok, err := c.Get(ctx, "https://img/1.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", e.ContentType)
	assert.Equal(t, []byte{2, 3}, e.Data)

	_, ok, err = c.Get(ctx, "https://img/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteCache_ExpiryAndPrune(t *testing.T) {
	c := newSQLiteCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "old", Entry{ContentType: "image/png", Data: []byte{1}}, -time.Hour))
	require.NoError(t, c.Set(ctx, "older", Entry{ContentType: "image/png", Data: []byte{1}}, -2*time.Hour))
	require.NoError(t, c.Set(ctx, "fresh", Entry{ContentType: "image/png", Data: []byte{1}}, time.Hour))

	_, ok, err := c.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err = c.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "fresh"))
	_, ok, _ = c.Get(ctx, "fresh")
	assert.False(t, ok)
}
