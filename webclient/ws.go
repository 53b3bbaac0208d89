package webclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vitaliisemenov/corefx/ferr"
)

// WSHandler processes one received text frame and optionally returns a reply
// to send back, grounded on ws_client.rs's `fun: Fn(String) -> Future<Output
// = Option<String>>` — a received message may or may not provoke an
// immediate response.
type WSHandler func(message string) (reply string, ok bool)

// WSClient is a reconnecting WebSocket client, grounded on
// original_source/tardis/src/web/ws_client.rs's TardisWSClient: Init dials
// and starts a background read loop invoking handler on every text frame;
// SendRaw/SendObj serialize and write, reconnecting once and retrying on a
// connection-closed write error exactly as do_send/reconnect do.
type WSClient struct {
	url     string
	handler WSHandler
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// DialWS connects to url and starts the background read loop that invokes
// handler for every received text message, grounded on
// TardisWSClient::init/do_init.
func DialWS(ctx context.Context, url string, handler WSHandler, logger *slog.Logger) (*WSClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &WSClient{url: url, handler: handler, logger: logger}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *WSClient) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return ferr.Internal("[webclient.WSClient] failed to connect %s: %v", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// readLoop mirrors TardisWSClient::do_init's spawned reader: it loops on
// ReadMessage, invokes the handler on text frames, and writes back any reply
// the handler returns. It exits silently once the connection is gone, same
// as the original's `while let Some(Ok(text)) = read.next().await`.
func (c *WSClient) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Debug("webclient ws read loop exiting", "url", c.url, "error", err)
			return
		}
		if msgType != websocket.TextMessage {
			c.logger.Debug("webclient ws received non-text frame, ignoring", "url", c.url, "type", msgType)
			continue
		}
		if c.handler == nil {
			continue
		}
		reply, ok := c.handler(string(data))
		if !ok {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			c.logger.Warn("webclient ws failed to send reply", "url", c.url, "error", err)
			return
		}
	}
}

// SendObj JSON-marshals msg and sends it as a text frame, grounded on
// TardisWSClient::send_obj.
func (c *WSClient) SendObj(ctx context.Context, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return ferr.BadRequest("marshalling ws message: %v", err)
	}
	return c.SendRaw(ctx, string(payload))
}

// SendRaw sends msg as a text frame, reconnecting once and retrying if the
// write fails because the connection was already closed — grounded on
// TardisWSClient::send_raw/reconnect's AlreadyClosed/Io retry-once policy.
func (c *WSClient) SendRaw(ctx context.Context, msg string) error {
	if err := c.doSend(msg); err != nil {
		c.logger.Warn("webclient ws send failed, reconnecting", "url", c.url, "error", err)
		if !isClosedConnError(err) {
			return ferr.Internal("[webclient.WSClient] failed to send message: %v", err)
		}
		if err := c.connect(ctx); err != nil {
			return err
		}
		if err := c.doSend(msg); err != nil {
			return ferr.Internal("[webclient.WSClient] failed to send message after reconnect: %v", err)
		}
	}
	return nil
}

func (c *WSClient) doSend(msg string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func isClosedConnError(err error) bool {
	if errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return true
	}
	_, ok := err.(*websocket.CloseError)
	return ok
}

// Close sends a close frame and releases the underlying connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
