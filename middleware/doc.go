// Package middleware provides the request pipeline that runs between a
// transport and the method router.
//
// Each middleware wraps the next handler, so the chain can act before and
// after dispatch:
//
//	handler := middleware.Chain(middleware.Stack(middleware.StackConfig{
//	    Logger: logger,
//	    Secret: cfg.Auth.APIKey,
//	}))(router.Handle)
//
// # Available Middleware
//
//   - Recover: catches panics and converts them to internal errors
//   - RequestID: injects a request ID (X-Request-ID or a fresh UUID)
//   - Logging: logs method, duration, request and trace ids
//   - OTel: spans and request metrics via OpenTelemetry
//   - RateLimit: per-client token bucket backed by fortify
//   - Auth: shared-secret check on the Authorization header
//   - Envelope: JSON-RPC envelope validation
//   - SizeLimit: rejects oversized params
//   - Timeout: per-request deadline
//
// Failures are returned as *protocol.Error values; transports turn them
// into JSON-RPC error responses.
package middleware
