package middleware

import (
	"context"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// Envelope returns middleware that rejects requests whose envelope is
// invalid (wrong jsonrpc version, missing method, bad id type) with
// -32600. It sits after Auth so an unauthenticated caller learns nothing
// about the envelope.
func Envelope() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if err := req.Validate(); err != nil {
				return nil, err
			}
			return next(ctx, req)
		}
	}
}
