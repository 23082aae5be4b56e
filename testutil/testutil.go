// Package testutil provides helpers for testing the gateway end to end.
//
// Example usage:
//
//	func TestAdd(t *testing.T) {
//	    gw := testutil.NewGateway(t, testutil.Config(t))
//	    tc := testutil.NewTestClient(t, gw.Handler(), testutil.APIKey)
//
//	    text, err := tc.CallToolText(ctx, "add", map[string]any{"a": 2, "b": 3})
//	    require.NoError(t, err)
//	    assert.Equal(t, "Result: 5", text)
//	}
package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	gateway "github.com/felixgeelhaar/mcp-gateway"
	"github.com/felixgeelhaar/mcp-gateway/client"
	"github.com/felixgeelhaar/mcp-gateway/config"
	"github.com/felixgeelhaar/mcp-gateway/protocol"
	"github.com/felixgeelhaar/mcp-gateway/transport"
)

// APIKey is the shared secret configured by Config.
const APIKey = "test-api-key"

// Config returns the default configuration with the database in a
// temporary directory and authentication enabled with APIKey.
func Config(t testing.TB) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "data", "mcp.db")
	cfg.Auth.APIKey = APIKey
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	return cfg
}

// NewGateway builds a gateway for cfg, logging to the test log.
func NewGateway(t testing.TB, cfg *config.Config, opts ...gateway.Option) *gateway.Gateway {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
	gw, err := gateway.New(context.Background(), cfg, logger, opts...)
	require.NoError(t, err, "gateway.New")
	t.Cleanup(func() { _ = gw.Close(context.Background()) })
	return gw
}

// TestClient is a gateway client bound to a test HTTP server.
type TestClient struct {
	*client.Client

	t   testing.TB
	URL string
}

// NewTestClient serves h on a test server and returns a client for it. An
// empty apiKey sends no Authorization header.
func NewTestClient(t testing.TB, h http.Handler, apiKey string) *TestClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var opts []client.HTTPOption
	if apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	c := client.New(client.NewHTTPTransport(srv.URL+"/mcp", opts...))
	t.Cleanup(func() { _ = c.Close() })

	return &TestClient{Client: c, t: t, URL: srv.URL}
}

// RawResponse is an HTTP reply to a raw POST.
type RawResponse struct {
	Status int
	Body   string
}

// Post sends body verbatim to path with the given Authorization value
// (omitted when empty).
func (tc *TestClient) Post(path, authorization, body string) RawResponse {
	tc.t.Helper()
	req, err := http.NewRequest(http.MethodPost, tc.URL+path, strings.NewReader(body))
	require.NoError(tc.t, err)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(tc.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(tc.t, err)
	return RawResponse{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}

// RequireToolText calls a tool and requires its text to equal want.
func (tc *TestClient) RequireToolText(name string, args any, want string) {
	tc.t.Helper()
	got, err := tc.CallToolText(context.Background(), name, args)
	require.NoError(tc.t, err, "tools/call %s", name)
	require.Equal(tc.t, want, got, "tools/call %s", name)
}

// RequireToolError calls a tool and requires a JSON-RPC error with the given
// code whose message starts with prefix.
func (tc *TestClient) RequireToolError(name string, args any, code int, prefix string) *protocol.Error {
	tc.t.Helper()
	_, err := tc.CallTool(context.Background(), name, args)
	perr := RequireProtocolError(tc.t, err, code)
	require.True(tc.t, strings.HasPrefix(perr.Message, prefix), "message %q does not start with %q", perr.Message, prefix)
	return perr
}

// RequireProtocolError requires err to be a *protocol.Error with code.
func RequireProtocolError(t testing.TB, err error, code int) *protocol.Error {
	t.Helper()
	var perr *protocol.Error
	require.True(t, errors.As(err, &perr), "expected *protocol.Error, got %v", err)
	require.Equal(t, code, perr.Code, "error code (message %q)", perr.Message)
	return perr
}

// HandlerTransport is a client.Transport that calls a transport.Handler in
// process, attaching the Authorization value as request metadata.
type HandlerTransport struct {
	handler       transport.Handler
	authorization string
}

// NewHandlerTransport returns an in-process transport for h.
func NewHandlerTransport(h transport.Handler, authorization string) *HandlerTransport {
	return &HandlerTransport{handler: h, authorization: authorization}
}

// Send implements client.Transport.
func (ht *HandlerTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	meta := protocol.RequestMeta{protocol.MetaTransport: "in-process"}
	if ht.authorization != "" {
		meta[protocol.MetaAuthorization] = ht.authorization
	}
	ctx = protocol.ContextWithRequestMeta(ctx, meta)

	resp, err := ht.handler.HandleRequest(ctx, req)
	if err != nil {
		return protocol.ErrorResponseFor(req.ID, err), nil
	}
	return resp, nil
}

// Close implements client.Transport.
func (ht *HandlerTransport) Close() error { return nil }

// PurchaseRecorder is a purchase log that keeps appended records in memory.
// Set Err to make Append fail.
type PurchaseRecorder struct {
	mu      sync.Mutex
	records []string
	Err     error
}

// Append implements server.PurchaseLog.
func (p *PurchaseRecorder) Append(_ context.Context, blob string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.records = append(p.records, blob)
	return nil
}

// Records returns the appended records in order.
func (p *PurchaseRecorder) Records() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.records...)
}
