package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// Transport carries one request to the gateway and returns its response.
// A JSON-RPC error is a successful Send: it arrives in Response.Error.
type Transport interface {
	Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
	Close() error
}

// Client is a JSON-RPC client for the gateway methods.
type Client struct {
	transport Transport
	timeout   time.Duration

	mu         sync.RWMutex
	serverInfo *protocol.InitializeResult
	requestID  atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the default timeout for requests. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client over the given transport.
func New(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize fetches the server identity and capabilities. The result is
// cached and available from ServerInfo.
func (c *Client) Initialize(ctx context.Context) (*protocol.InitializeResult, error) {
	var result protocol.InitializeResult
	if err := c.call(ctx, protocol.MethodInitialize, nil, &result); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	c.mu.Lock()
	c.serverInfo = &result
	c.mu.Unlock()

	return &result, nil
}

// ServerInfo returns the result of the last successful Initialize, or nil.
func (c *Client) ServerInfo() *protocol.InitializeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// ListTools returns the tools in registration order.
func (c *Client) ListTools(ctx context.Context) ([]protocol.ToolDescriptor, error) {
	var result protocol.ToolsListResult
	if err := c.call(ctx, protocol.MethodToolsList, nil, &result); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a tool. arguments may be nil.
func (c *Client) CallTool(ctx context.Context, name string, arguments any) (*protocol.CallToolResult, error) {
	var result protocol.CallToolResult
	params := protocol.CallToolParams{Name: name, Arguments: arguments}
	if err := c.call(ctx, protocol.MethodToolsCall, params, &result); err != nil {
		return nil, fmt.Errorf("call tool %q: %w", name, err)
	}
	return &result, nil
}

// CallToolText invokes a tool and returns the text of its first content block.
func (c *Client) CallToolText(ctx context.Context, name string, arguments any) (string, error) {
	result, err := c.CallTool(ctx, name, arguments)
	if err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("call tool %q: empty content", name)
	}
	return result.Content[0].Text, nil
}

// ListResources returns the resource catalog.
func (c *Client) ListResources(ctx context.Context) ([]protocol.ResourceDescriptor, error) {
	var result protocol.ResourcesListResult
	if err := c.call(ctx, protocol.MethodResourcesList, nil, &result); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return result.Resources, nil
}

// ReadResource reads the resource at uri.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ResourceContents, error) {
	var result protocol.ReadResourceResult
	if err := c.call(ctx, protocol.MethodResourcesRead, map[string]string{"uri": uri}, &result); err != nil {
		return nil, fmt.Errorf("read resource %q: %w", uri, err)
	}
	if len(result.Contents) == 0 {
		return nil, fmt.Errorf("read resource %q: no content", uri)
	}
	return &result.Contents[0], nil
}

// ListPrompts returns the prompt catalog.
func (c *Client) ListPrompts(ctx context.Context) ([]protocol.PromptDescriptor, error) {
	var result protocol.PromptsListResult
	if err := c.call(ctx, protocol.MethodPromptsList, nil, &result); err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return result.Prompts, nil
}

// Call sends an arbitrary method and decodes the result into out, which may
// be nil. A JSON-RPC error is returned as *protocol.Error.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	return c.call(ctx, method, params, out)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(fmt.Sprintf("%d", c.requestID.Add(1))),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return decodeResult(resp.Result, out)
}

// decodeResult converts a response result into out. Transports hand over
// json.RawMessage; in-memory transports may hand over Go values.
func decodeResult(result, out any) error {
	raw, ok := result.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
