// Package gateway assembles the JSON-RPC tool gateway: the SQLite todo
// store, the purchase log, the middleware stack, the method router and the
// HTTP and WebSocket transports.
//
// Basic usage:
//
//	cfg, err := config.Load("gateway.yaml")
//	logger := logging.New(cfg.Logging, os.Stderr)
//	gw, err := gateway.New(ctx, cfg, logger)
//	err = gw.Serve(ctx)
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/mcp-gateway/config"
	"github.com/felixgeelhaar/mcp-gateway/logging"
	"github.com/felixgeelhaar/mcp-gateway/middleware"
	"github.com/felixgeelhaar/mcp-gateway/protocol"
	"github.com/felixgeelhaar/mcp-gateway/purchaselog"
	"github.com/felixgeelhaar/mcp-gateway/server"
	"github.com/felixgeelhaar/mcp-gateway/store"
	"github.com/felixgeelhaar/mcp-gateway/telemetry"
	"github.com/felixgeelhaar/mcp-gateway/transport"
)

// Gateway is a fully wired gateway instance.
type Gateway struct {
	cfg    *config.Config
	logger zerolog.Logger

	store     *store.SQLiteStore
	purchases server.PurchaseLog
	telemetry *telemetry.Provider

	server  *server.Server
	handler transport.Handler
	http    *transport.HTTP
	ws      *transport.WebSocket

	closeOnce sync.Once
	closeErr  error
}

// Option customizes a Gateway.
type Option func(*options)

type options struct {
	purchases     server.PurchaseLog
	telemetryOpts []telemetry.Option
	httpOpts      []transport.HTTPOption
	middleware    []middleware.Middleware
}

// WithPurchaseLog replaces the configured purchase log backend.
func WithPurchaseLog(p server.PurchaseLog) Option {
	return func(o *options) {
		o.purchases = p
	}
}

// WithTelemetryOptions passes options to the telemetry provider.
func WithTelemetryOptions(opts ...telemetry.Option) Option {
	return func(o *options) {
		o.telemetryOpts = append(o.telemetryOpts, opts...)
	}
}

// WithHTTPOptions appends options to the HTTP transport.
func WithHTTPOptions(opts ...transport.HTTPOption) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, opts...)
	}
}

// WithMiddleware appends middleware after the standard stack, directly in
// front of the router.
func WithMiddleware(m ...middleware.Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, m...)
	}
}

// New builds a gateway from cfg. The todo schema is created before New
// returns, so a database that cannot be opened fails startup.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Gateway, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	g := &Gateway{cfg: cfg, logger: logger}

	g.store = store.NewSQLiteStore(cfg.Database.Path, store.WithLogger(logger))
	if err := g.store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	purchases, err := g.purchaseLog(o.purchases)
	if err != nil {
		return nil, err
	}
	g.purchases = purchases

	stackCfg := middleware.StackConfig{
		Logger:         logging.NewAdapter(logger),
		Secret:         cfg.Auth.APIKey,
		RateLimit:      cfg.Limits.Rate,
		Burst:          cfg.Limits.Burst,
		MaxParamsBytes: cfg.Limits.MaxParamsBytes,
		Timeout:        cfg.Limits.RequestTimeout.Std(),
	}
	if cfg.Telemetry.Enabled {
		g.telemetry = telemetry.New(cfg.Telemetry, o.telemetryOpts...)
		stackCfg.Telemetry = []middleware.OTelOption{
			middleware.WithTracerProvider(g.telemetry.TracerProvider()),
			middleware.WithMeterProvider(g.telemetry.MeterProvider()),
			middleware.WithOTelServiceName(cfg.Telemetry.ServiceName),
		}
	}

	g.server = server.New(server.Info{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, server.NewRegistry(g.store, g.purchases))

	chain := middleware.Use(middleware.Stack(stackCfg)...).Append(o.middleware...)
	g.handler = rpcHandler{
		HandlerFunc: transport.HandlerFunc(chain.Then(g.server.Handle)),
		reject:      middleware.Rejected(stackCfg.Logger, stackCfg.Telemetry),
	}

	httpOpts := []transport.HTTPOption{
		transport.WithReadTimeout(cfg.Server.ReadTimeout.Std()),
		transport.WithWriteTimeout(cfg.Server.WriteTimeout.Std()),
		transport.WithMaxBodyBytes(cfg.Limits.MaxBodyBytes),
		transport.WithShutdownTimeout(cfg.Server.ShutdownTimeout.Std()),
		transport.WithShutdownDrainDelay(cfg.Server.DrainDelay.Std()),
		transport.WithCORSOrigins(cfg.Server.CORSOrigins...),
		transport.WithHTTPLogger(logger),
	}
	if g.telemetry != nil {
		httpOpts = append(httpOpts, transport.WithMount("/metrics", g.telemetry.Handler()))
	}
	if cfg.Server.WebSocket {
		g.ws = transport.NewWebSocket(g.handler,
			transport.WithWebSocketMaxMessage(cfg.Limits.MaxBodyBytes),
			transport.WithWebSocketLogger(logger),
		)
		httpOpts = append(httpOpts, transport.WithMount("GET /ws", g.ws))
	}
	g.http = transport.NewHTTP(cfg.Server.HTTPAddr, append(httpOpts, o.httpOpts...)...)

	logger.Info().
		Str("database", g.store.Path()).
		Str("purchase_log", cfg.PurchaseBackend()).
		Bool("auth", cfg.Auth.APIKey != "").
		Bool("websocket", g.ws != nil).
		Bool("telemetry", g.telemetry != nil).
		Msg("gateway configured")

	return g, nil
}

func (g *Gateway) purchaseLog(override server.PurchaseLog) (server.PurchaseLog, error) {
	if override != nil {
		return override, nil
	}
	if g.cfg.PurchaseBackend() != config.BackendRemote {
		return g.store, nil
	}

	client, err := purchaselog.New(g.cfg.PurchaseLog.URL, g.cfg.PurchaseLog.AuthToken,
		purchaselog.WithTimeout(g.cfg.PurchaseLog.Timeout.Std()),
		purchaselog.WithMaxRetries(g.cfg.PurchaseLog.MaxRetries),
		purchaselog.WithLogger(g.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("purchase log: %w", err)
	}
	return client, nil
}

// Server returns the method router.
func (g *Gateway) Server() *server.Server { return g.server }

// rpcHandler is the middleware chain plus the observer for messages the
// transports reject before dispatch.
type rpcHandler struct {
	transport.HandlerFunc
	reject middleware.RejectFunc
}

func (h rpcHandler) ObserveReject(ctx context.Context, err *protocol.Error) {
	h.reject(ctx, err)
}

// RequestHandler returns the middleware chain in front of the router.
func (g *Gateway) RequestHandler() transport.Handler { return g.handler }

// Handler returns the HTTP handler serving every endpoint.
func (g *Gateway) Handler() http.Handler { return g.http.Handler(g.handler) }

// Telemetry returns the telemetry provider, or nil when disabled.
func (g *Gateway) Telemetry() *telemetry.Provider { return g.telemetry }

// Addr returns the address the listener is bound to once Serve runs.
func (g *Gateway) Addr() string {
	if addr := g.http.ListenAddr(); addr != "" {
		return addr
	}
	return g.http.Addr()
}

// Serve runs the HTTP listener until ctx is canceled, then drains
// in-flight requests, closes WebSocket connections and flushes telemetry.
func (g *Gateway) Serve(ctx context.Context) error {
	err := g.http.Serve(ctx, g.handler)
	if g.ws != nil {
		g.ws.CloseAll()
	}
	return errors.Join(err, g.Close(context.Background()))
}

// Close releases the telemetry providers. Serve calls it on return; later
// calls return the first result.
func (g *Gateway) Close(ctx context.Context) error {
	g.closeOnce.Do(func() {
		if g.telemetry == nil {
			return
		}
		timeout := g.cfg.Server.ShutdownTimeout.Std()
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := g.telemetry.Shutdown(shutdownCtx); err != nil {
			g.closeErr = fmt.Errorf("telemetry shutdown: %w", err)
		}
	})
	return g.closeErr
}
