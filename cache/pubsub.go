package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Publish publishes msg on channel and returns the number of subscribers
// that received it.
func (c *Client) Publish(ctx context.Context, channel, msg string) (int64, error) {
	v, err := c.rdb.Publish(ctx, channel, msg).Result()
	return v, wrapErr(err)
}

// Subscriber wraps a dedicated *redis.PubSub connection (spec §4.5
// "pubsub() method returning a dedicated subscriber connection").
type Subscriber struct {
	ps *redis.PubSub
}

// PubSub returns a new Subscriber listening on channels.
func (c *Client) PubSub(ctx context.Context, channels ...string) *Subscriber {
	return &Subscriber{ps: c.rdb.Subscribe(ctx, channels...)}
}

// Receive blocks for the next message on the subscription.
func (s *Subscriber) Receive(ctx context.Context) (channel, payload string, err error) {
	msg, err := s.ps.ReceiveMessage(ctx)
	if err != nil {
		return "", "", wrapErr(err)
	}
	return msg.Channel, msg.Payload, nil
}

// Close tears down the subscription.
func (s *Subscriber) Close() error {
	return s.ps.Close()
}
