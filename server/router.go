package server

import (
	"context"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// Handle dispatches a validated request. It has the middleware.HandlerFunc
// signature so it can sit at the end of a middleware chain. Failures are
// returned as *protocol.Error.
func (s *Server) Handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	result, err := s.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}

func (s *Server) dispatch(ctx context.Context, req *protocol.Request) (any, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return s.Initialize(), nil
	case protocol.MethodToolsList:
		return &protocol.ToolsListResult{Tools: s.registry.List()}, nil
	case protocol.MethodToolsCall:
		return s.callTool(ctx, req)
	case protocol.MethodResourcesList:
		return &protocol.ResourcesListResult{Resources: s.catalog.Resources}, nil
	case protocol.MethodResourcesRead:
		return s.readResource(req)
	case protocol.MethodPromptsList:
		return &protocol.PromptsListResult{Prompts: s.catalog.Prompts}, nil
	default:
		return nil, protocol.NewMethodNotFound(protocol.MsgMethodNotFound)
	}
}

func (s *Server) callTool(ctx context.Context, req *protocol.Request) (any, error) {
	if !req.HasParams() {
		return nil, protocol.NewInvalidParams(protocol.MsgInvalidParams)
	}

	params := parseArguments(req.Params)
	name, ok := params.str("name")
	if !ok {
		return nil, protocol.NewInvalidParams("Tool name is required")
	}

	return s.registry.Call(ctx, name, params["arguments"])
}

func (s *Server) readResource(req *protocol.Request) (any, error) {
	if !req.HasParams() {
		return nil, protocol.NewInvalidParams(protocol.MsgInvalidParams)
	}

	uri, ok := parseArguments(req.Params).str("uri")
	if !ok {
		return nil, protocol.NewInvalidParams("URI is required")
	}
	return s.catalog.Read(uri), nil
}
