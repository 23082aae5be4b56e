package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
	"github.com/felixgeelhaar/mcp-gateway/schema"
	"github.com/felixgeelhaar/mcp-gateway/store"
)

// TodoStore persists todos for add_todo. Implementations acquire and
// release their own connection per call.
type TodoStore interface {
	InsertTodo(ctx context.Context, title string) (int64, error)
}

// PurchaseLog records purchases for the purchase tool.
type PurchaseLog interface {
	Append(ctx context.Context, blob string) error
}

// EchoArgs are the arguments of echo.
type EchoArgs struct {
	Message *string `json:"message" jsonschema:"description=Message to echo"`
}

// AddArgs are the arguments of add.
type AddArgs struct {
	A float64 `json:"a" jsonschema:"required"`
	B float64 `json:"b" jsonschema:"required"`
}

// AddTodoArgs are the arguments of add_todo.
type AddTodoArgs struct {
	Title string `json:"title" jsonschema:"required,description=The todo item title/content"`
}

// PurchaseArgs are the arguments of purchase.
type PurchaseArgs struct {
	Name  string `json:"name" jsonschema:"required,description=購入する品名"`
	Price int64  `json:"price" jsonschema:"required,description=価格,type=number"`
}

func (EchoArgs) tool() string     { return "echo" }
func (AddArgs) tool() string      { return "add" }
func (AddTodoArgs) tool() string  { return "add_todo" }
func (PurchaseArgs) tool() string { return "purchase" }

func builtinTools() []*Tool {
	return []*Tool{
		{
			Name:        "echo",
			Description: "Echo back the input message",
			InputSchema: schema.MustGenerate(EchoArgs{}),
			decode: func(args arguments) (Invocation, error) {
				var in EchoArgs
				if msg, ok := args.str("message"); ok {
					in.Message = &msg
				}
				return in, nil
			},
		},
		{
			Name:        "add",
			Description: "Add two numbers",
			InputSchema: schema.MustGenerate(AddArgs{}),
			decode: func(args arguments) (Invocation, error) {
				return AddArgs{A: args.number("a"), B: args.number("b")}, nil
			},
		},
		{
			Name:        "add_todo",
			Description: "Add a new todo item to the database",
			InputSchema: schema.MustGenerate(AddTodoArgs{}),
			decode: func(args arguments) (Invocation, error) {
				title, ok := args.str("title")
				if !ok {
					return nil, protocol.NewInvalidParams("Title is required")
				}
				return AddTodoArgs{Title: title}, nil
			},
		},
		{
			Name:        "purchase",
			Description: "品名と価格を受け取り、値をAPIに送信します。",
			InputSchema: schema.MustGenerate(PurchaseArgs{}),
			decode: func(args arguments) (Invocation, error) {
				name, ok := args.str("name")
				if !ok {
					return nil, protocol.NewInvalidParams("name is required")
				}
				return PurchaseArgs{Name: name, Price: args.integer("price")}, nil
			},
		},
	}
}

func echo(in EchoArgs) *protocol.CallToolResult {
	msg := "No message"
	if in.Message != nil {
		msg = *in.Message
	}
	return protocol.TextResult("Echo: " + msg)
}

func add(in AddArgs) *protocol.CallToolResult {
	return protocol.TextResult("Result: " + formatNumber(in.A+in.B))
}

// formatNumber prints the shortest decimal form without an exponent:
// 5 -> "5", 2.5 -> "2.5".
func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		// Drops the sign of negative zero.
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func addTodo(ctx context.Context, todos TodoStore, in AddTodoArgs) (*protocol.CallToolResult, error) {
	if todos == nil {
		return nil, protocol.NewInternalError("Database connection error: no store configured")
	}

	id, err := todos.InsertTodo(ctx, in.Title)
	if err != nil {
		if errors.Is(err, store.ErrConnect) {
			return nil, protocol.Internalf("Database connection error: %v", store.Cause(err))
		}
		return nil, protocol.Internalf("Database insert error: %v", store.Cause(err))
	}
	return protocol.TextResult("Todo added successfully with ID: " + strconv.FormatInt(id, 10)), nil
}

// purchaseRecord is the JSON document appended to the purchase log.
type purchaseRecord struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func purchase(ctx context.Context, log PurchaseLog, in PurchaseArgs) (*protocol.CallToolResult, error) {
	if log == nil {
		return nil, protocol.NewInternalError("Purchase log error: no purchase log configured")
	}

	blob, err := encodeRecord(purchaseRecord{Name: in.Name, Price: in.Price})
	if err != nil {
		return nil, protocol.Internalf("Purchase log error: %v", err)
	}
	if err := log.Append(ctx, blob); err != nil {
		return nil, protocol.Internalf("Purchase log error: %v", err)
	}

	price := strconv.FormatInt(in.Price, 10)
	return protocol.TextResult("Result: " + in.Name + " " + price + " 円 登録しました"), nil
}

// encodeRecord marshals v without HTML escaping so names round-trip as typed.
func encodeRecord(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
