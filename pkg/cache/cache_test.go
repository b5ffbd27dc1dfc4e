package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))
	b, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)

	ok, err := mc.Exists(ctx, "missing", "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mc.Delete(ctx, "k"))
	_, err = mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Minute))
	assert.Equal(t, 2, mc.Len())

	_, err := mc.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	_, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Minute))

	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCache_SweepDropsExpired(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(time.Millisecond))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool { return mc.Len() == 0 }, time.Second, 2*time.Millisecond)
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	buf := []byte("abc")
	require.NoError(t, mc.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	b, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

func TestLayeredCache_PromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2)
	defer lc.Close()

	require.NoError(t, l2.Set(ctx, "k", []byte("v"), time.Minute))

	b, err := lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))

	// Served from L1 after L2 loses it.
	require.NoError(t, l2.Delete(ctx, "k"))
	b, err = lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))

	require.NoError(t, lc.Delete(ctx, "k"))
	_, err = lc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKeyAndDigest(t *testing.T) {
	assert.Equal(t, "score:2.1.0:abc", Key("score", "", "2.1.0", "abc"))
	assert.Equal(t, Digest([]byte(`{"age":30}`)), Digest([]byte(`{"age":30}`)))
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
	assert.Len(t, Digest([]byte("a")), 32)
}

func TestRedisAddrs(t *testing.T) {
	cfg := &RedisConfig{Addr: "a:6379, b:6379,,"}
	assert.Equal(t, []string{"a:6379", "b:6379"}, cfg.addrs())
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	_, err := NewRedisCache(WithRedisAddr("127.0.0.1:1"), WithRedisDialTimeout(200*time.Millisecond))
	assert.Error(t, err)
}
