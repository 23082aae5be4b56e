// Package client calls a running gateway over HTTP or WebSocket.
//
//	c := client.New(client.NewHTTPTransport("http://localhost:3000/mcp",
//	    client.WithAPIKey(os.Getenv("API_KEY")),
//	))
//	text, err := c.CallToolText(ctx, "add", map[string]any{"a": 2, "b": 3})
//
// JSON-RPC failures are returned as *protocol.Error, so callers can match
// them with errors.As or errors.Is against a protocol error code.
package client
