package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// HTTPTransport posts each request to a gateway endpoint.
type HTTPTransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
	headers  http.Header
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithAPIKey sends key in the Authorization header.
func WithAPIKey(key string) HTTPOption {
	return func(t *HTTPTransport) {
		t.apiKey = key
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.client = hc
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) {
		t.headers.Add(key, value)
	}
}

// NewHTTPTransport creates a transport for endpoint, e.g.
// "http://localhost:3000/mcp".
func NewHTTPTransport(endpoint string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		headers:  make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// wireResponse keeps the result raw so the client decodes it once.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *protocol.Error `json:"error"`
}

func (r *wireResponse) response() *protocol.Response {
	resp := &protocol.Response{JSONRPC: r.JSONRPC, ID: r.ID, Error: r.Error}
	if r.Error == nil {
		resp.Result = r.Result
	}
	return resp
}

// Send posts req and decodes the JSON-RPC response. Non-JSON replies, such
// as a 405 or 503 from the listener, are returned as errors.
func (t *HTTPTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range t.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", t.apiKey)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", t.endpoint, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil || wire.JSONRPC == "" {
		return nil, fmt.Errorf("unexpected response: HTTP %d: %s", httpResp.StatusCode, bytes.TrimSpace(data))
	}
	return wire.response(), nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
