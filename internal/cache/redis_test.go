package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, opts Options) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewRedisCache(mr.Addr(), "", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedisCachePutAndGet(t *testing.T) {
	c, _ := setupTestRedis(t, Options{TTL: time.Hour})
	ctx := context.Background()

	entry := NewEntry(json.RawMessage(`"the answer"`))
	require.NoError(t, c.Put(ctx, "fp1", entry))

	got, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `"the answer"`, string(got.Result))
}

func TestRedisCacheGetNonExistent(t *testing.T) {
	c, _ := setupTestRedis(t, Options{})
	ctx := context.Background()

	got, err := c.Get(ctx, "no-such-key")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheOverwrite(t *testing.T) {
	c, _ := setupTestRedis(t, Options{})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "fp1", NewEntry(json.RawMessage(`"first"`))))
	require.NoError(t, c.Put(ctx, "fp1", NewEntry(json.RawMessage(`"second"`))))

	got, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `"second"`, string(got.Result))
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	c, mr := setupTestRedis(t, Options{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "fp1", NewEntry(json.RawMessage(`"short lived"`))))

	// miniredis only expires keys when the clock is advanced explicitly.
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, "fp1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheClear(t *testing.T) {
	c, mr := setupTestRedis(t, Options{})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "fp1", NewEntry(json.RawMessage(`"a"`))))
	require.NoError(t, c.Put(ctx, "fp2", NewEntry(json.RawMessage(`"b"`))))

	// Keys outside the smartqa prefix belong to other tenants and survive.
	mr.Set("other:key", "untouched")

	require.NoError(t, c.Clear(ctx))

	got, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = c.Get(ctx, "fp2")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, mr.Exists("other:key"))
}
