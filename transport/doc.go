// Package transport carries JSON-RPC requests between clients and a Handler.
//
// Every transport runs a raw message through the same steps: decode the
// envelope, hand it to the Handler (normally the middleware chain in front
// of the router) and encode exactly one response. Authentication failures
// are the only protocol outcome that changes the HTTP status (401); every
// other one, errors included, is delivered with 200. A draining server
// answers 503. Messages that fail to decode are reported to handlers that
// implement RejectObserver.
//
// # HTTP Transport
//
//	t := transport.NewHTTP(":3000",
//	    transport.WithReadTimeout(30*time.Second),
//	    transport.WithCORSOrigins("http://localhost:5173"),
//	    transport.WithMount("/ws", transport.NewWebSocket(handler)),
//	)
//	err := t.Serve(ctx, handler)
//
// Endpoints:
//   - POST / and POST /mcp - JSON-RPC requests
//   - GET /health - health check
//   - anything registered with WithMount
//
// Serve drains in-flight requests before it returns; see ShutdownManager.
//
// # WebSocket Transport
//
// WebSocket is an http.Handler. The upgrade request's Authorization header
// applies to every message on the connection.
package transport
