package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// DefaultMaxBodyBytes bounds the size of a request body.
const DefaultMaxBodyBytes = 1 << 20

// HTTP serves JSON-RPC requests over plain HTTP POST.
type HTTP struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBodyBytes int64
	corsConfig   *CORSConfig
	shutdownCfg  ShutdownConfig
	mounts       []mount
	logger       zerolog.Logger

	shutdown *ShutdownManager

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
}

type mount struct {
	pattern string
	handler http.Handler
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithMaxBodyBytes limits request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithShutdownTimeout bounds how long Serve waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.shutdownCfg.Timeout = d
	}
}

// WithShutdownDrainDelay sets the delay before new requests are refused.
func WithShutdownDrainDelay(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.shutdownCfg.DrainDelay = d
	}
}

// WithMount registers an additional handler on the server mux, e.g. the
// WebSocket endpoint or a metrics handler.
func WithMount(pattern string, handler http.Handler) HTTPOption {
	return func(h *HTTP) {
		h.mounts = append(h.mounts, mount{pattern: pattern, handler: handler})
	}
}

// WithHTTPLogger sets the logger used for listener lifecycle events.
func WithHTTPLogger(l zerolog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = l.With().Str("component", "http").Logger()
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:         addr,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		maxBodyBytes: DefaultMaxBodyBytes,
		shutdownCfg:  DefaultShutdownConfig(),
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.shutdown = NewShutdownManager(h.withShutdownLogging(h.shutdownCfg))
	return h
}

// withShutdownLogging fills the unset shutdown hooks with log lines for each
// drain phase.
func (h *HTTP) withShutdownLogging(cfg ShutdownConfig) ShutdownConfig {
	if cfg.OnShutdownStart == nil {
		cfg.OnShutdownStart = func() {
			h.logger.Info().Int64("in_flight", h.shutdown.InFlightRequests()).Msg("shutting down")
		}
	}
	if cfg.OnDrainStart == nil {
		cfg.OnDrainStart = func() {
			h.logger.Info().Msg("draining, new requests are refused")
		}
	}
	if cfg.OnShutdownComplete == nil {
		cfg.OnShutdownComplete = func(err error) {
			if err != nil {
				h.logger.Warn().Err(err).Int64("in_flight", h.shutdown.InFlightRequests()).Msg("drain incomplete")
				return
			}
			h.logger.Info().Msg("drain complete")
		}
	}
	return cfg
}

// Addr returns the configured address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the actual address the server is listening on.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Draining reports whether the transport has stopped accepting requests.
func (h *HTTP) Draining() bool {
	return h.shutdown.IsDraining()
}

// Serve listens on the configured address until ctx is canceled, then
// drains in-flight requests and stops the server. A clean shutdown returns nil.
func (h *HTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = &http.Server{
		Handler:      h.Handler(handler),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}
	srv := h.server
	h.mu.Unlock()

	h.logger.Info().Str("addr", listener.Addr().String()).Msg("listening")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Drain failures are logged by the shutdown hooks; the server is
	// stopped either way.
	_ = h.shutdown.Shutdown(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdown.Timeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler serving the JSON-RPC endpoints, the
// health check and any mounted handlers.
func (h *HTTP) Handler(handler Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.handleRPC(w, r, handler)
	})
	mux.Handle("POST /{$}", rpc)
	mux.Handle("POST /mcp", rpc)

	for _, m := range h.mounts {
		mux.Handle(m.pattern, m.handler)
	}

	if h.corsConfig != nil {
		return CORSHandler(*h.corsConfig, mux)
	}
	return mux
}

// handleRPC handles one JSON-RPC request carried in a POST body.
func (h *HTTP) handleRPC(w http.ResponseWriter, r *http.Request, handler Handler) {
	if !h.shutdown.TrackRequest() {
		w.Header().Set("Connection", "close")
		writeResponse(w, http.StatusServiceUnavailable,
			protocol.NewErrorResponse(nil, protocol.NewInternalError(MsgShuttingDown)))
		return
	}
	defer h.shutdown.CompleteRequest()

	ctx := protocol.ContextWithRequestMeta(r.Context(), protocol.MetaFromHTTP(r, "http"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		perr := protocol.NewParseError(protocol.MsgParseError)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			perr = protocol.NewInvalidRequest(MsgBodyTooLarge).WithData(map[string]any{"limit": tooLarge.Limit})
		}
		observeReject(ctx, handler, perr)
		writeResponse(w, http.StatusOK, protocol.NewErrorResponse(nil, perr))
		return
	}

	resp, status := process(ctx, handler, body)
	writeResponse(w, status, resp)
}

// Error messages for requests refused by the HTTP transport itself.
const (
	MsgBodyTooLarge = "Request body too large"
	MsgShuttingDown = "Server is shutting down"
)

func writeResponse(w http.ResponseWriter, status int, resp *protocol.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = protocol.EncodeResponse(w, resp)
}
