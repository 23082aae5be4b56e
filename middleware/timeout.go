package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// Timeout returns middleware that enforces a request deadline. A handler
// that overruns it fails with an internal error. Tools observe the
// deadline through their context, so storage and outbound calls stop too.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			resp, err := next(ctx, req)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, protocol.Internalf("request timed out after %s", d)
			}
			return resp, err
		}
	}
}
