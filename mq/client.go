// Package mq wraps a single long-lived AMQP connection with a fresh channel
// per publish/consume, confirm-select backpressure, and a consumer loop that
// reconstructs the framework's (headers, body) pair (spec §4.6, §5).
package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Message is the framework's (headers, body) pair reconstructed from an AMQP
// delivery. Only long-string header values are accepted (spec §4.6 Open
// Question, resolved here to a per-message error rather than a panic).
type Message struct {
	Headers map[string]string
	Body    []byte
}

// Handler processes one delivery; a nil return acks, a non-nil return logs
// and leaves the message unacked for broker redelivery (spec §7).
type Handler func(ctx context.Context, msg Message) error

// Client owns one *amqp.Connection and tracks every channel opened off it so
// Close can tear them all down before closing the connection itself.
type Client struct {
	conn   *amqp.Connection
	logger *slog.Logger

	mu       sync.Mutex
	channels []*amqp.Channel
	closed   bool
}

// New dials a single connection from cfg.URL.
func New(cfg fwconfig.MQModuleConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, ferr.ServiceUnavailable("dialing mq broker: %v", err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

func (c *Client) newChannel() (*amqp.Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	c.mu.Lock()
	c.channels = append(c.channels, ch)
	c.mu.Unlock()
	return ch, nil
}

// Publish opens a fresh channel, puts it into confirm mode, publishes msg
// and awaits the broker's ack before returning (spec §5 Backpressure:
// "publishers use confirm_select so publishes await broker ack before
// returning Ok").
func (c *Client) Publish(ctx context.Context, exchange, routingKey string, headers map[string]string, body []byte) error {
	ch, err := c.newChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return ferr.Wrap(err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	amqpHeaders := make(amqp.Table, len(headers))
	for k, v := range headers {
		amqpHeaders[k] = v
	}

	if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		Headers:     amqpHeaders,
		ContentType: "application/octet-stream",
		Body:        body,
	}); err != nil {
		return ferr.Wrap(err)
	}

	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return ferr.Internal("broker did not ack publish to %s/%s", exchange, routingKey)
		}
		return nil
	case <-ctx.Done():
		return ferr.Wrap(ctx.Err())
	}
}

// Subscribe spawns a detached consumer loop on a fresh channel/queue that
// reads deliveries, reconstructs (headers, body), invokes handler, and acks
// on success (spec §4.6). The returned cancel stops the loop and closes its
// channel; it does not close the connection.
func (c *Client) Subscribe(ctx context.Context, queue, consumerTag string, handler Handler) (cancel func(), err error) {
	ch, err := c.newChannel()
	if err != nil {
		return nil, err
	}

	deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, ferr.Wrap(err)
	}

	ctx, stop := context.WithCancel(ctx)
	go c.consumeLoop(ctx, ch, deliveries, handler)

	return func() {
		stop()
		ch.Close()
	}, nil
}

func (c *Client) consumeLoop(ctx context.Context, ch *amqp.Channel, deliveries <-chan amqp.Delivery, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			msg, err := headersToMessage(d)
			if err != nil {
				c.logger.Error("mq: dropping delivery with non-string header", "error", err, "exchange", d.Exchange, "routing_key", d.RoutingKey)
				continue
			}
			if err := handler(ctx, msg); err != nil {
				c.logger.Error("mq: handler failed, leaving message unacked for redelivery", "error", err, "delivery_tag", d.DeliveryTag)
				continue
			}
			if err := d.Ack(false); err != nil {
				c.logger.Error("mq: ack failed", "error", err, "delivery_tag", d.DeliveryTag)
			}
		}
	}
}

// headersToMessage reconstructs the framework's (headers, body) pair. Only
// long-string AMQP table values are accepted; any other value type is a
// per-message error that the caller logs and skips, per the Open Question
// resolution recorded in DESIGN.md (the reference implementation panics
// instead).
func headersToMessage(d amqp.Delivery) (Message, error) {
	headers := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		s, ok := v.(string)
		if !ok {
			return Message{}, fmt.Errorf("header %q has non-string value %T", k, v)
		}
		headers[k] = s
	}
	return Message{Headers: headers, Body: d.Body}, nil
}

// Close closes every tracked channel, then the connection (spec §4.6
// "close() closes every tracked channel then the connection").
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, ch := range c.channels {
		_ = ch.Close()
	}
	if err := c.conn.Close(); err != nil {
		return ferr.Wrap(err)
	}
	return nil
}
