package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

func setupTestCache(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := New(fwconfig.CacheModuleConfig{
		URL:         mr.Addr(),
		PoolSize:    5,
		DialTimeout: time.Second,
		ReadTimeout: time.Second,
	})
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", "v1"))
	v, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	c, _ := setupTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSetNXOnlySetsOnce(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "first", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", "second", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestHashOperations(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "h", "f1", "v1"))
	v, err := c.HGet(ctx, "h", "f1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	n, err := c.HLen(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDelConfirmWaitsUntilGone(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	require.NoError(t, c.DelConfirm(ctx, "k"))

	n, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestHDelConfirmWaitsUntilGone(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "h", "f", "v"))
	require.NoError(t, c.HDelConfirm(ctx, "h", "f"))

	ok, err := c.HExists(ctx, "h", "f")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListOperations(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	_, err := c.RPush(ctx, "l", "a", "b", "c")
	require.NoError(t, err)

	all, err := c.LRangeAll(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)
}

func TestScriptInvoke(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	res, err := c.NewScript(`return redis.call("SET", KEYS[1], ARGV[1])`).
		Key("scripted").
		Arg("hello").
		Invoke(ctx)
	require.NoError(t, err)
	assert.NotNil(t, res)

	v, err := c.Get(ctx, "scripted")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestPublishSubscribe(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	sub := c.PubSub(ctx, "events")
	defer sub.Close()

	// miniredis synchronously delivers to subscribers registered before publish.
	time.Sleep(10 * time.Millisecond)

	_, err := c.Publish(ctx, "events", "hello")
	require.NoError(t, err)

	ch, payload, err := sub.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "events", ch)
	assert.Equal(t, "hello", payload)
}
