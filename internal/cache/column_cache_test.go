package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trakr/internal/model"
)

func newTestCache(t *testing.T) (*ColumnCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewColumnCache(client, time.Minute, zap.NewNop()), server
}

func TestColumnCache_RoundTrip(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()
	cols := []model.Column{
		{ID: 3, ProjectID: 1, Name: "To Do", NextCol: 2},
		{ID: 2, ProjectID: 1, Name: "Done", Size: 4, NextCol: -1},
	}

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Set(ctx, 1, c.Version(ctx, 1), cols)
	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, cols, got)
	assert.Equal(t, time.Minute, server.TTL(key(1)))

	c.Invalidate(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestColumnCache_SkipsWriteAfterInvalidation(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()
	stale := []model.Column{{ID: 1, ProjectID: 4, Name: "To Do", NextCol: -1}}

	// A load starts, a write invalidates, then the load tries to store.
	version := c.Version(ctx, 4)
	c.Invalidate(ctx, 4)
	c.Set(ctx, 4, version, stale)

	_, ok := c.Get(ctx, 4)
	assert.False(t, ok)
	assert.False(t, server.Exists(key(4)))

	c.Set(ctx, 4, c.Version(ctx, 4), stale)
	_, ok = c.Get(ctx, 4)
	assert.True(t, ok)
}

func TestColumnCache_VersionReadFailure(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, server.Set(versionKey(2), "not a number"))

	version := c.Version(ctx, 2)
	assert.EqualValues(t, -1, version)

	c.Set(ctx, 2, version, []model.Column{{ID: 1}})
	assert.False(t, server.Exists(key(2)))
}

func TestColumnCache_Expires(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 9, c.Version(ctx, 9), []model.Column{{ID: 1, Name: "To Do", NextCol: -1}})
	server.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, 9)
	assert.False(t, ok)
}

func TestColumnCache_CorruptEntry(t *testing.T) {
	c, server := newTestCache(t)
	require.NoError(t, server.Set(key(5), "not json"))

	_, ok := c.Get(context.Background(), 5)
	assert.False(t, ok)
}

func TestColumnCache_NilClient(t *testing.T) {
	c := NewColumnCache(nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	assert.EqualValues(t, -1, c.Version(ctx, 1))
	c.Set(ctx, 1, 0, []model.Column{{ID: 1}})
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	c.Invalidate(ctx, 1)
	assert.Equal(t, "not configured", c.Ping(ctx))

	var nilCache *ColumnCache
	_, ok = nilCache.Get(ctx, 1)
	assert.False(t, ok)
}

func TestConnect(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+server.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "connected", NewColumnCache(client, time.Minute, zap.NewNop()).Ping(context.Background()))

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
