package corefx

import (
	"context"

	"github.com/vitaliisemenov/corefx/cache"
	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// ClusterClient is a thin stand-in for the "cluster" family spec.md names
// but never gives a concrete shape to: no teacher or pack example carries a
// clustering backend, so cluster membership/broadcast is built on top of the
// cache client's pub/sub instead of a bespoke protocol (see DESIGN.md).
// Nodes configured statically via ClusterModuleConfig.Nodes are advisory
// only; membership discovery itself is out of scope.
type ClusterClient struct {
	nodes []string
	cache *cache.Client
}

func newClusterClient(cfg fwconfig.ClusterModuleConfig, cache *cache.Client) *ClusterClient {
	return &ClusterClient{nodes: cfg.Nodes, cache: cache}
}

// Nodes returns the statically configured cluster member list.
func (c *ClusterClient) Nodes() []string {
	return append([]string(nil), c.nodes...)
}

// Broadcast publishes payload on channel so every process subscribed via
// Subscribe observes it; this is the cluster family's only behavior.
func (c *ClusterClient) Broadcast(ctx context.Context, channel, payload string) error {
	if c.cache == nil {
		return ferr.ServiceUnavailable("cluster broadcast requires the cache family to be enabled")
	}
	_, err := c.cache.Publish(ctx, channel, payload)
	return err
}

// Subscribe listens for Broadcast messages on channel.
func (c *ClusterClient) Subscribe(ctx context.Context, channel string) (*cache.Subscriber, error) {
	if c.cache == nil {
		return nil, ferr.ServiceUnavailable("cluster subscribe requires the cache family to be enabled")
	}
	return c.cache.PubSub(ctx, channel), nil
}
