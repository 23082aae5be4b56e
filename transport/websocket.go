package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// WebSocket serves JSON-RPC over WebSocket connections. Each text frame is
// one request and is answered with exactly one response frame. The headers
// of the upgrade request authenticate every message on the connection.
type WebSocket struct {
	handler  Handler
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration
	maxMessage   int64

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// wsClient represents a single WebSocket connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout sets the idle timeout between messages.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for WebSocket upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketMaxMessage limits the size of a single inbound message.
func WithWebSocketMaxMessage(n int64) WebSocketOption {
	return func(ws *WebSocket) {
		ws.maxMessage = n
	}
}

// WithWebSocketLogger sets the connection logger.
func WithWebSocketLogger(l zerolog.Logger) WebSocketOption {
	return func(ws *WebSocket) {
		ws.logger = l.With().Str("component", "websocket").Logger()
	}
}

// NewWebSocket creates a WebSocket endpoint dispatching to handler. Mount it
// on an HTTP transport with WithMount.
func NewWebSocket(handler Handler, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:       zerolog.Nop(),
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		maxMessage:   DefaultMaxBodyBytes,
		clients:      make(map[*wsClient]struct{}),
	}

	for _, opt := range opts {
		opt(ws)
	}

	return ws
}

// Clients returns the number of open connections.
func (ws *WebSocket) Clients() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.clients)
}

// ServeHTTP upgrades the connection and serves requests until the peer
// disconnects or the request context ends.
func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}
	if ws.maxMessage > 0 {
		conn.SetReadLimit(ws.maxMessage)
	}

	client := &wsClient{conn: conn}
	ws.mu.Lock()
	ws.clients[client] = struct{}{}
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.clients, client)
		ws.mu.Unlock()
		_ = conn.Close()
	}()

	meta := protocol.MetaFromHTTP(r, "websocket")
	ctx := r.Context()

	for {
		if ctx.Err() != nil {
			return
		}
		if ws.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.logger.Debug().Err(err).Msg("connection closed")
			}
			return
		}

		resp, _ := process(protocol.ContextWithRequestMeta(ctx, meta), ws.handler, message)
		if err := client.writeJSON(resp, ws.writeTimeout); err != nil {
			ws.logger.Debug().Err(err).Msg("write failed")
			return
		}
	}
}

// CloseAll sends a close frame to every open connection.
func (ws *WebSocket) CloseAll() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for client := range ws.clients {
		client.close()
	}
}

func (c *wsClient) writeJSON(v any, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}
