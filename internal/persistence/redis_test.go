package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/config"
)

// Runs against a live server only when TEST_REDIS_ADDR is set.
func testRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	r := NewRedis(config.RedisConfig{Addr: addr}, zap.NewNop())
	t.Cleanup(r.Close)
	require.NoError(t, r.Ping(context.Background()))
	return r
}

func TestRedisKV(t *testing.T) {
	r := testRedis(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _ = r.Delete(context.Background(), key) })

	_, err := r.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, r.Set(ctx, key, []byte("v"), time.Minute))
	got, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	ok, err := r.SetNX(ctx, key, []byte("other"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Delete(ctx, key))
	_, err = r.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
