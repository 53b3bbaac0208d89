// Package cache wraps a pooled Redis connection (teacher's cache.Cache
// generalized to the framework's full key/list/hash/bitmap/scripting/pub-sub
// surface, spec §4.5).
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Client wraps a *redis.Client. Every method borrows a connection from the
// pool for the duration of the call and maps go-redis errors into the
// framework's tagged taxonomy.
type Client struct {
	rdb *redis.Client
}

// New builds a Client from cfg. The connection is lazy (go-redis itself
// connects on first use); New does not call Ping, so an unreachable server
// surfaces on the first operation or on an explicit Ping.
func New(cfg fwconfig.CacheModuleConfig) *Client {
	opts := &redis.Options{
		Addr:         cfg.URL,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Client{rdb: redis.NewClient(opts)}
}

// Raw exposes the underlying *redis.Client for call shapes not covered here.
func (c *Client) Raw() *redis.Client { return c.rdb }

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

func wrapErr(err error) error {
	if err == nil || err == redis.Nil {
		return nil
	}
	return ferr.Wrap(err)
}

// --- Key operations ---

func (c *Client) Set(ctx context.Context, key, value string) error {
	return wrapErr(c.rdb.Set(ctx, key, value, 0).Err())
}

func (c *Client) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return wrapErr(c.rdb.Set(ctx, key, value, ttl).Err())
}

// SetNX sets key only if it does not already exist, reporting whether the
// set happened.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	return ok, wrapErr(err)
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ferr.NotFound("key %q not found", key)
	}
	return v, wrapErr(err)
}

func (c *Client) GetSet(ctx context.Context, key, value string) (string, error) {
	v, err := c.rdb.GetSet(ctx, key, value).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, wrapErr(err)
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	v, err := c.rdb.Incr(ctx, key).Result()
	return v, wrapErr(err)
}

func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	v, err := c.rdb.Del(ctx, keys...).Result()
	return v, wrapErr(err)
}

func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	v, err := c.rdb.Exists(ctx, keys...).Result()
	return v, wrapErr(err)
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	return ok, wrapErr(err)
}

func (c *Client) ExpireAt(ctx context.Context, key string, at time.Time) (bool, error) {
	ok, err := c.rdb.ExpireAt(ctx, key, at).Result()
	return ok, wrapErr(err)
}

func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	v, err := c.rdb.TTL(ctx, key).Result()
	return v, wrapErr(err)
}

// --- Confirmed deletes ---

// confirmPollInterval is how often DelConfirm/HDelConfirm re-check existence
// while busy-looping toward consistency (spec §4.5's busy-loop wording,
// resolved to a bounded, ctx-respecting poll per Open Question decision 3
// in SPEC_FULL.md §9, instead of an unbounded spin).
const confirmPollInterval = 10 * time.Millisecond

// DelConfirm deletes key, then polls Exists until it reports gone or ctx is
// done, to paper over eventually-consistent cluster reads racing a
// subsequent read of the same key.
func (c *Client) DelConfirm(ctx context.Context, key string) error {
	if _, err := c.Del(ctx, key); err != nil {
		return err
	}
	return pollUntilGone(ctx, func() (bool, error) {
		n, err := c.Exists(ctx, key)
		return n > 0, err
	})
}

// HDelConfirm is DelConfirm for a single hash field.
func (c *Client) HDelConfirm(ctx context.Context, key, field string) error {
	if err := wrapErr(c.rdb.HDel(ctx, key, field).Err()); err != nil {
		return err
	}
	return pollUntilGone(ctx, func() (bool, error) {
		ok, err := c.rdb.HExists(ctx, key, field).Result()
		return ok, wrapErr(err)
	})
}

func pollUntilGone(ctx context.Context, stillThere func() (bool, error)) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()
	for {
		present, err := stillThere()
		if err != nil {
			return err
		}
		if !present {
			return nil
		}
		select {
		case <-ctx.Done():
			return ferr.RequestTimeout("waiting for delete to be confirmed: %v", ctx.Err())
		case <-ticker.C:
		}
	}
}
