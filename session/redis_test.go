package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisStoreSetGetClear(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, "portal:test:session", 0)

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tok-1"))

	token, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, s.Clear(ctx))

	_, ok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreTTLExpiresSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, "", time.Minute)

	require.NoError(t, s.Set(ctx, "tok-1"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, "", 0)

	mr.Close()

	err := s.Set(ctx, "tok-1")
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, _, err = s.Get(ctx)
	assert.True(t, errors.Is(err, ErrUnavailable))

	err = s.Clear(ctx)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
