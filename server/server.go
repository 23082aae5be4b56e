package server

import "github.com/felixgeelhaar/mcp-gateway/protocol"

// Info contains server metadata exposed to clients.
type Info struct {
	Name    string
	Version string
}

// DefaultInfo is the identity reported by initialize unless configured.
var DefaultInfo = Info{Name: "MCP Server Example", Version: "1.0.0"}

// Option configures a Server.
type Option func(*Server)

// WithCatalog replaces the default resource and prompt catalog.
func WithCatalog(c *Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// Server routes JSON-RPC methods to the tool registry and the catalog.
// It holds no mutable state and is safe for concurrent use.
type Server struct {
	info     Info
	registry *Registry
	catalog  *Catalog
}

// New creates a server over the given registry.
func New(info Info, registry *Registry, opts ...Option) *Server {
	s := &Server{
		info:     info,
		registry: registry,
		catalog:  DefaultCatalog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info returns the server info.
func (s *Server) Info() Info { return s.info }

// Registry returns the tool registry.
func (s *Server) Registry() *Registry { return s.registry }

// Initialize builds the initialize result.
func (s *Server) Initialize() *protocol.InitializeResult {
	return &protocol.InitializeResult{
		ProtocolVersion: protocol.MCPVersion,
		ServerInfo: protocol.ServerInfo{
			Name:    s.info.Name,
			Version: s.info.Version,
		},
		Capabilities: protocol.ServerCapabilities{
			Tools:     &struct{}{},
			Resources: &struct{}{},
			Prompts:   &struct{}{},
		},
	}
}
