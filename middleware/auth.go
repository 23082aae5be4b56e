package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// Authenticator decides whether a request may proceed.
type Authenticator func(ctx context.Context, req *protocol.Request) bool

// SharedSecret returns an authenticator that compares the Authorization
// header carried in the request metadata with secret. The header value must
// match exactly; there is no scheme prefix. An empty secret disables the
// check and every request passes.
func SharedSecret(secret string) Authenticator {
	if secret == "" {
		return func(context.Context, *protocol.Request) bool { return true }
	}
	want := []byte(secret)
	return func(ctx context.Context, _ *protocol.Request) bool {
		got := protocol.GetRequestMeta(ctx, protocol.MetaAuthorization)
		return subtle.ConstantTimeCompare([]byte(got), want) == 1
	}
}

// AuthOption configures the authentication middleware.
type AuthOption func(*authConfig)

type authConfig struct {
	logger Logger
}

// WithAuthLogger sets the logger for auth events.
func WithAuthLogger(l Logger) AuthOption {
	return func(c *authConfig) {
		c.logger = l
	}
}

// Auth returns middleware that rejects requests the authenticator refuses
// with an unauthorized error (-32001). Transports map that code to
// HTTP 401.
func Auth(authenticator Authenticator, opts ...AuthOption) Middleware {
	cfg := &authConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if !authenticator(ctx, req) {
				if cfg.logger != nil {
					cfg.logger.Warn("authentication failed",
						F("method", req.Method),
						F("remote_addr", protocol.GetRequestMeta(ctx, protocol.MetaRemoteAddr)),
					)
				}
				return nil, protocol.NewUnauthorized(protocol.MsgUnauthorized)
			}
			return next(ctx, req)
		}
	}
}
