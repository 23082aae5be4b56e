package transport

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// Handler processes decoded requests. Failures are returned as errors,
// preferably *protocol.Error; anything else becomes an internal error.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// RejectObserver is implemented by handlers that want to see messages
// rejected while decoding. Those messages are answered directly and never
// reach HandleRequest.
type RejectObserver interface {
	ObserveReject(ctx context.Context, err *protocol.Error)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// process runs one raw message through decoding and the handler. It always
// produces a response, together with the HTTP status that should carry it:
// 401 for authentication failures and 200 for everything else.
func process(ctx context.Context, handler Handler, body []byte) (*protocol.Response, int) {
	req, derr := protocol.DecodeRequest(body)
	if derr != nil {
		observeReject(ctx, handler, derr)
		return protocol.NewErrorResponse(nil, derr), http.StatusOK
	}

	resp, err := handler.HandleRequest(ctx, req)
	if err != nil {
		perr := protocol.AsError(err)
		status := http.StatusOK
		if perr.Code == protocol.CodeUnauthorized {
			status = http.StatusUnauthorized
		}
		return protocol.NewErrorResponse(req.ID, perr), status
	}
	if resp == nil {
		return protocol.NewErrorResponse(req.ID, protocol.NewInternalError(protocol.MsgInternalError)), http.StatusOK
	}
	return resp, http.StatusOK
}

func observeReject(ctx context.Context, handler Handler, err *protocol.Error) {
	if o, ok := handler.(RejectObserver); ok {
		o.ObserveReject(ctx, err)
	}
}
