package protocol

import (
	"context"
	"net/http"
)

// Well-known request metadata keys.
const (
	MetaAuthorization = "Authorization"
	MetaRequestID     = "X-Request-ID"
	MetaRemoteAddr    = "Remote-Addr"
	MetaTransport     = "Transport"
)

// requestMetaKey is the context key for request metadata.
type requestMetaKey struct{}

// RequestMeta holds transport-level information about a request, such as
// selected HTTP headers, so that middleware can inspect it without depending
// on the transport.
type RequestMeta map[string]string

// MetaFromHTTP captures the headers the middleware stack cares about.
func MetaFromHTTP(r *http.Request, transport string) RequestMeta {
	meta := RequestMeta{
		MetaRemoteAddr: r.RemoteAddr,
		MetaTransport:  transport,
	}
	// Header.Get canonicalises the key, so "authorization" matches too.
	if v := r.Header.Get(MetaAuthorization); v != "" {
		meta[MetaAuthorization] = v
	}
	if v := r.Header.Get(MetaRequestID); v != "" {
		meta[MetaRequestID] = v
	}
	return meta
}

// ContextWithRequestMeta returns a new context with the request metadata attached.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata from the context, or nil.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return meta
	}
	return nil
}

// GetRequestMeta returns a metadata value, or "" when absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}
