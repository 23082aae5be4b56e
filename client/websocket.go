package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("client: transport closed")

// WebSocketTransport sends requests over a single WebSocket connection.
// The gateway answers frames in order, so one request is in flight at a time.
type WebSocketTransport struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// DialWebSocket connects to url, e.g. "ws://localhost:3000/ws". A non-empty
// apiKey is sent in the Authorization header of the upgrade request.
func DialWebSocket(ctx context.Context, url, apiKey string) (*WebSocketTransport, error) {
	header := http.Header{}
	if apiKey != "" {
		header.Set("Authorization", apiKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &WebSocketTransport{conn: conn}, nil
}

// Send writes req and waits for the next frame.
func (t *WebSocketTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = t.conn.SetWriteDeadline(deadline)
	_ = t.conn.SetReadDeadline(deadline)

	if err := t.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return wire.response(), nil
}

// Close sends a close frame and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}
