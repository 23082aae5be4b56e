package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
	"github.com/felixgeelhaar/mcp-gateway/store"
)

// fakeTodos hands out increasing ids or fails with err.
type fakeTodos struct {
	mu     sync.Mutex
	nextID int64
	titles []string
	err    error
}

func (f *fakeTodos) InsertTodo(_ context.Context, title string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	f.titles = append(f.titles, title)
	return f.nextID, nil
}

// fakeLog records appended blobs or fails with err.
type fakeLog struct {
	blobs []string
	err   error
}

func (f *fakeLog) Append(_ context.Context, blob string) error {
	if f.err != nil {
		return f.err
	}
	f.blobs = append(f.blobs, blob)
	return nil
}

func callText(t *testing.T, r *Registry, name, args string) string {
	t.Helper()
	res, err := r.Call(context.Background(), name, json.RawMessage(args))
	if err != nil {
		t.Fatalf("%s(%s): unexpected error: %v", name, args, err)
	}
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("%s: expected one text block, got %+v", name, res.Content)
	}
	return res.Content[0].Text
}

func wantError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *protocol.Error, got %T (%v)", err, err)
	}
	if perr.Code != code || perr.Message != msg {
		t.Errorf("got {%d, %q}, want {%d, %q}", perr.Code, perr.Message, code, msg)
	}
}

func TestRegistry_List(t *testing.T) {
	tools := NewRegistry(nil, nil).List()

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	want := []string{"echo", "add", "add_todo", "purchase"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistry_Schemas(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"echo", `{"type":"object","properties":{"message":{"type":"string","description":"Message to echo"}}}`},
		{"add", `{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"]}`},
		{"add_todo", `{"type":"object","properties":{"title":{"type":"string","description":"The todo item title/content"}},"required":["title"]}`},
		{"purchase", `{"type":"object","properties":{"name":{"type":"string","description":"購入する品名"},"price":{"type":"number","description":"価格"}},"required":["name","price"]}`},
	}

	r := NewRegistry(nil, nil)
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := r.Lookup(tt.tool)
			if !ok {
				t.Fatalf("tool %q not registered", tt.tool)
			}
			data, err := json.Marshal(tool.InputSchema)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got  %s\nwant %s", data, tt.want)
			}
		})
	}
}

func TestRegistry_Decode(t *testing.T) {
	r := NewRegistry(nil, nil)

	t.Run("produces typed invocations", func(t *testing.T) {
		inv, err := r.Decode("purchase", json.RawMessage(`{"name":"Pen","price":100}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := inv.(PurchaseArgs)
		if !ok {
			t.Fatalf("expected PurchaseArgs, got %T", inv)
		}
		if got.Name != "Pen" || got.Price != 100 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := r.Decode("delete_everything", nil)
		wantError(t, err, protocol.CodeInvalidParams, "Unknown tool: delete_everything")
	})
}

func TestEcho(t *testing.T) {
	r := NewRegistry(nil, nil)

	tests := []struct {
		name string
		args string
		want string
	}{
		{"with message", `{"message":"hi"}`, "Echo: hi"},
		{"empty message", `{"message":""}`, "Echo: "},
		{"no message", `{}`, "Echo: No message"},
		{"no arguments", ``, "Echo: No message"},
		{"non-string message", `{"message":42}`, "Echo: No message"},
		{"arguments not an object", `"hi"`, "Echo: No message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callText(t, r, "echo", tt.args); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	r := NewRegistry(nil, nil)

	tests := []struct {
		name string
		args string
		want string
	}{
		{"integers", `{"a":2,"b":3}`, "Result: 5"},
		{"fractions", `{"a":1,"b":1.5}`, "Result: 2.5"},
		{"negative", `{"a":-2,"b":0.5}`, "Result: -1.5"},
		{"missing b", `{"a":2}`, "Result: 2"},
		{"non-numeric", `{"a":"x","b":3}`, "Result: 3"},
		{"nothing", `{}`, "Result: 0"},
		{"large", `{"a":1e21,"b":0}`, "Result: 1000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callText(t, r, "add", tt.args); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "5"},
		{2.5, "2.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{-0.0, "0"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("returns generated ids", func(t *testing.T) {
		todos := &fakeTodos{}
		r := NewRegistry(todos, nil)

		if got := callText(t, r, "add_todo", `{"title":"Buy milk"}`); got != "Todo added successfully with ID: 1" {
			t.Errorf("got %q", got)
		}
		if got := callText(t, r, "add_todo", `{"title":"Buy eggs"}`); got != "Todo added successfully with ID: 2" {
			t.Errorf("got %q", got)
		}
		if len(todos.titles) != 2 || todos.titles[0] != "Buy milk" {
			t.Errorf("titles = %v", todos.titles)
		}
	})

	t.Run("requires title", func(t *testing.T) {
		todos := &fakeTodos{}
		r := NewRegistry(todos, nil)

		for _, args := range []string{`{}`, `{"title":7}`, ``} {
			_, err := r.Call(ctx, "add_todo", json.RawMessage(args))
			wantError(t, err, protocol.CodeInvalidParams, "Title is required")
		}
		if len(todos.titles) != 0 {
			t.Error("store should not have been touched")
		}
	})

	t.Run("connect failure", func(t *testing.T) {
		cause := errors.New("unable to open database file")
		r := NewRegistry(&fakeTodos{err: &store.Error{Kind: store.ErrConnect, Err: cause}}, nil)

		_, err := r.Call(ctx, "add_todo", json.RawMessage(`{"title":"x"}`))
		wantError(t, err, protocol.CodeInternalError, "Database connection error: unable to open database file")
	})

	t.Run("insert failure", func(t *testing.T) {
		cause := errors.New("no such table: todo")
		r := NewRegistry(&fakeTodos{err: &store.Error{Kind: store.ErrInsert, Err: cause}}, nil)

		_, err := r.Call(ctx, "add_todo", json.RawMessage(`{"title":"x"}`))
		wantError(t, err, protocol.CodeInternalError, "Database insert error: no such table: todo")
	})

	t.Run("unclassified failure counts as insert failure", func(t *testing.T) {
		r := NewRegistry(&fakeTodos{err: errors.New("boom")}, nil)

		_, err := r.Call(ctx, "add_todo", json.RawMessage(`{"title":"x"}`))
		wantError(t, err, protocol.CodeInternalError, "Database insert error: boom")
	})
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("logs record and reports", func(t *testing.T) {
		log := &fakeLog{}
		r := NewRegistry(nil, log)

		if got := callText(t, r, "purchase", `{"name":"Pen","price":100}`); got != "Result: Pen 100 円 登録しました" {
			t.Errorf("got %q", got)
		}
		if len(log.blobs) != 1 || log.blobs[0] != `{"name":"Pen","price":100}` {
			t.Errorf("blobs = %v", log.blobs)
		}
	})

	t.Run("price defaults to zero", func(t *testing.T) {
		for _, args := range []string{`{"name":"Pen"}`, `{"name":"Pen","price":"100"}`, `{"name":"Pen","price":1.5}`} {
			log := &fakeLog{}
			r := NewRegistry(nil, log)

			if got := callText(t, r, "purchase", args); got != "Result: Pen 0 円 登録しました" {
				t.Errorf("%s: got %q", args, got)
			}
			if log.blobs[0] != `{"name":"Pen","price":0}` {
				t.Errorf("%s: blob = %s", args, log.blobs[0])
			}
		}
	})

	t.Run("does not escape html", func(t *testing.T) {
		log := &fakeLog{}
		r := NewRegistry(nil, log)

		callText(t, r, "purchase", `{"name":"<Pen & Ink>","price":5}`)
		if log.blobs[0] != `{"name":"<Pen & Ink>","price":5}` {
			t.Errorf("blob = %s", log.blobs[0])
		}
	})

	t.Run("requires name", func(t *testing.T) {
		log := &fakeLog{}
		r := NewRegistry(nil, log)

		_, err := r.Call(ctx, "purchase", json.RawMessage(`{"price":100}`))
		wantError(t, err, protocol.CodeInvalidParams, "name is required")
		if len(log.blobs) != 0 {
			t.Error("purchase log should not have been touched")
		}
	})

	t.Run("log failure surfaces as internal error", func(t *testing.T) {
		r := NewRegistry(nil, &fakeLog{err: errors.New("remote unavailable")})

		_, err := r.Call(ctx, "purchase", json.RawMessage(`{"name":"Pen","price":100}`))
		wantError(t, err, protocol.CodeInternalError, "Purchase log error: remote unavailable")
	})
}
