package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
	"github.com/felixgeelhaar/mcp-gateway/schema"
)

// Invocation is a decoded tool call. Each tool has its own argument type;
// the set is closed to this package.
type Invocation interface {
	tool() string
}

// Tool is a callable operation exposed via tools/call.
type Tool struct {
	Name        string
	Description string
	InputSchema *schema.Schema

	// decode turns the raw arguments into the tool's Invocation, or fails
	// with an invalid params error when a required argument is missing.
	decode func(args arguments) (Invocation, error)
}

// Descriptor returns the tools/list entry for the tool.
func (t *Tool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// Registry is the closed, ordered set of tools. It is built once at startup
// and only read afterwards, so it is safe for concurrent use.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool

	todos     TodoStore
	purchases PurchaseLog
}

// NewRegistry builds the registry with echo, add, add_todo and purchase in
// that order. todos and purchases back the side-effecting tools.
func NewRegistry(todos TodoStore, purchases PurchaseLog) *Registry {
	r := &Registry{
		byName:    make(map[string]*Tool),
		todos:     todos,
		purchases: purchases,
	}
	for _, t := range builtinTools() {
		r.register(t)
	}
	return r
}

func (r *Registry) register(t *Tool) {
	if _, dup := r.byName[t.Name]; dup {
		panic(fmt.Sprintf("server: duplicate tool %q", t.Name))
	}
	r.tools = append(r.tools, t)
	r.byName[t.Name] = t
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns the descriptors in registration order.
func (r *Registry) List() []protocol.ToolDescriptor {
	out := make([]protocol.ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Descriptor())
	}
	return out
}

// Decode parses the arguments for the named tool.
func (r *Registry) Decode(name string, raw json.RawMessage) (Invocation, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, protocol.NewInvalidParams("Unknown tool: " + name)
	}
	return t.decode(parseArguments(raw))
}

// Call decodes and runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) (*protocol.CallToolResult, error) {
	inv, err := r.Decode(name, raw)
	if err != nil {
		return nil, err
	}
	return r.Invoke(ctx, inv)
}

// Invoke runs a decoded invocation.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) (*protocol.CallToolResult, error) {
	switch in := inv.(type) {
	case EchoArgs:
		return echo(in), nil
	case AddArgs:
		return add(in), nil
	case AddTodoArgs:
		return addTodo(ctx, r.todos, in)
	case PurchaseArgs:
		return purchase(ctx, r.purchases, in)
	default:
		return nil, protocol.Internalf("no handler for tool %q", inv.tool())
	}
}
