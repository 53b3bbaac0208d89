package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// --- List operations ---

func (c *Client) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	v, err := c.rdb.LPush(ctx, key, toAny(values)...).Result()
	return v, wrapErr(err)
}

func (c *Client) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	v, err := c.rdb.RPush(ctx, key, toAny(values)...).Result()
	return v, wrapErr(err)
}

func (c *Client) LRangeAll(ctx context.Context, key string) ([]string, error) {
	v, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	return v, wrapErr(err)
}

func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	v, err := c.rdb.LLen(ctx, key).Result()
	return v, wrapErr(err)
}

func (c *Client) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	v, err := c.rdb.LRem(ctx, key, count, value).Result()
	return v, wrapErr(err)
}

func (c *Client) LInsertBefore(ctx context.Context, key, pivot, value string) (int64, error) {
	v, err := c.rdb.LInsertBefore(ctx, key, pivot, value).Result()
	return v, wrapErr(err)
}

func (c *Client) LInsertAfter(ctx context.Context, key, pivot, value string) (int64, error) {
	v, err := c.rdb.LInsertAfter(ctx, key, pivot, value).Result()
	return v, wrapErr(err)
}

func (c *Client) LSet(ctx context.Context, key string, index int64, value string) error {
	return wrapErr(c.rdb.LSet(ctx, key, index, value).Err())
}

// --- Hash operations ---

func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := c.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		return "", wrapErr(err)
	}
	return v, nil
}

func (c *Client) HSet(ctx context.Context, key, field, value string) error {
	return wrapErr(c.rdb.HSet(ctx, key, field, value).Err())
}

func (c *Client) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	ok, err := c.rdb.HSetNX(ctx, key, field, value).Result()
	return ok, wrapErr(err)
}

func (c *Client) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	v, err := c.rdb.HDel(ctx, key, fields...).Result()
	return v, wrapErr(err)
}

func (c *Client) HIncr(ctx context.Context, key, field string, by int64) (int64, error) {
	v, err := c.rdb.HIncrBy(ctx, key, field, by).Result()
	return v, wrapErr(err)
}

func (c *Client) HExists(ctx context.Context, key, field string) (bool, error) {
	v, err := c.rdb.HExists(ctx, key, field).Result()
	return v, wrapErr(err)
}

func (c *Client) HKeys(ctx context.Context, key string) ([]string, error) {
	v, err := c.rdb.HKeys(ctx, key).Result()
	return v, wrapErr(err)
}

func (c *Client) HVals(ctx context.Context, key string) ([]string, error) {
	v, err := c.rdb.HVals(ctx, key).Result()
	return v, wrapErr(err)
}

func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := c.rdb.HGetAll(ctx, key).Result()
	return v, wrapErr(err)
}

func (c *Client) HLen(ctx context.Context, key string) (int64, error) {
	v, err := c.rdb.HLen(ctx, key).Result()
	return v, wrapErr(err)
}

// --- Bitmap operations ---

func (c *Client) SetBit(ctx context.Context, key string, offset int64, value int) (int64, error) {
	v, err := c.rdb.SetBit(ctx, key, offset, value).Result()
	return v, wrapErr(err)
}

func (c *Client) GetBit(ctx context.Context, key string, offset int64) (int64, error) {
	v, err := c.rdb.GetBit(ctx, key, offset).Result()
	return v, wrapErr(err)
}

func (c *Client) BitCount(ctx context.Context, key string) (int64, error) {
	v, err := c.rdb.BitCount(ctx, key, nil).Result()
	return v, wrapErr(err)
}

func (c *Client) BitCountRangeByByte(ctx context.Context, key string, start, end int64) (int64, error) {
	v, err := c.rdb.BitCount(ctx, key, &redis.BitCount{Start: start, End: end, Unit: "BYTE"}).Result()
	return v, wrapErr(err)
}

func (c *Client) BitCountRangeByBit(ctx context.Context, key string, start, end int64) (int64, error) {
	v, err := c.rdb.BitCount(ctx, key, &redis.BitCount{Start: start, End: end, Unit: "BIT"}).Result()
	return v, wrapErr(err)
}

// --- Admin ---

func (c *Client) FlushDB(ctx context.Context) error {
	return wrapErr(c.rdb.FlushDB(ctx).Err())
}

func (c *Client) FlushAll(ctx context.Context) error {
	return wrapErr(c.rdb.FlushAll(ctx).Err())
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
