package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t, 0)

	require.NoError(t, s.Ping(ctx))

	_, found, err := s.Load(ctx, "cart:v1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, "cart:v1", []byte(`[]`)))
	b, found, err := s.Load(ctx, "cart:v1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(b))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Hour)

	require.NoError(t, s.Save(ctx, "cart:v1", []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("cart:v1"))

	mr.FastForward(2 * time.Hour)
	_, found, err := s.Load(ctx, "cart:v1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_CorruptValueRestoresEmpty(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, 0)
	require.NoError(t, mr.Set("cart:v1", "{{{"))

	got, err := NewRepository(s, "", nil).Restore(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore(context.Background(), StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)

	mr := miniredis.RunT(t)
	s, err = OpenStore(context.Background(), StoreConfig{Driver: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	_ = s.Close()

	_, err = OpenStore(context.Background(), StoreConfig{Driver: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
