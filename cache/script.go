package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Script is a lazily-built Lua script invocation (spec §4.5 "a lazy
// script(code) builder producing an invocation you arm with key/arg and run
// with invoke").
type Script struct {
	client *Client
	script *redis.Script
	keys   []string
	args   []any
}

// NewScript builds a lazy invocation for the given Lua source. Nothing runs
// until Invoke is called.
func (c *Client) NewScript(code string) *Script {
	return &Script{client: c, script: redis.NewScript(code)}
}

// Key appends a KEYS[] entry.
func (s *Script) Key(key string) *Script {
	s.keys = append(s.keys, key)
	return s
}

// Arg appends an ARGV[] entry.
func (s *Script) Arg(arg any) *Script {
	s.args = append(s.args, arg)
	return s
}

// Invoke runs the script against the armed keys/args.
func (s *Script) Invoke(ctx context.Context) (any, error) {
	v, err := s.script.Run(ctx, s.client.rdb, s.keys, s.args...).Result()
	if err != nil && err != redis.Nil {
		return nil, wrapErr(err)
	}
	return v, nil
}
