package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

func TestProcess(t *testing.T) {
	ok := HandlerFunc(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
		return protocol.NewResponse(req.ID, "pong"), nil
	})

	tests := []struct {
		name       string
		handler    Handler
		body       string
		wantStatus int
		wantCode   int
		wantID     string
	}{
		{
			name:       "success",
			handler:    ok,
			body:       `{"jsonrpc":"2.0","method":"ping","id":7}`,
			wantStatus: http.StatusOK,
			wantID:     "7",
		},
		{
			name:       "parse error has null id",
			handler:    ok,
			body:       `{"jsonrpc":`,
			wantStatus: http.StatusOK,
			wantCode:   protocol.CodeParseError,
		},
		{
			name:       "batch rejected",
			handler:    ok,
			body:       `[{"jsonrpc":"2.0","method":"ping","id":1}]`,
			wantStatus: http.StatusOK,
			wantCode:   protocol.CodeInvalidRequest,
		},
		{
			name: "unauthorized maps to 401",
			handler: HandlerFunc(func(context.Context, *protocol.Request) (*protocol.Response, error) {
				return nil, protocol.NewUnauthorized(protocol.MsgUnauthorized)
			}),
			body:       `{"jsonrpc":"2.0","method":"ping","id":"a"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   protocol.CodeUnauthorized,
			wantID:     `"a"`,
		},
		{
			name: "plain error becomes internal error",
			handler: HandlerFunc(func(context.Context, *protocol.Request) (*protocol.Response, error) {
				return nil, errors.New("boom")
			}),
			body:       `{"jsonrpc":"2.0","method":"ping","id":2}`,
			wantStatus: http.StatusOK,
			wantCode:   protocol.CodeInternalError,
			wantID:     "2",
		},
		{
			name: "nil response becomes internal error",
			handler: HandlerFunc(func(context.Context, *protocol.Request) (*protocol.Response, error) {
				return nil, nil
			}),
			body:       `{"jsonrpc":"2.0","method":"ping","id":3}`,
			wantStatus: http.StatusOK,
			wantCode:   protocol.CodeInternalError,
			wantID:     "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, status := process(context.Background(), tt.handler, []byte(tt.body))
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}

			data, err := json.Marshal(resp)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got struct {
				ID    json.RawMessage `json:"id"`
				Error *protocol.Error `json:"error"`
			}
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			wantID := tt.wantID
			if wantID == "" {
				wantID = "null"
			}
			if string(got.ID) != wantID {
				t.Errorf("id = %s, want %s", got.ID, wantID)
			}

			switch {
			case tt.wantCode == 0 && got.Error != nil:
				t.Errorf("unexpected error %v", got.Error)
			case tt.wantCode != 0 && got.Error == nil:
				t.Errorf("expected error code %d, got result", tt.wantCode)
			case tt.wantCode != 0 && got.Error.Code != tt.wantCode:
				t.Errorf("code = %d, want %d", got.Error.Code, tt.wantCode)
			}
		})
	}
}

type observingHandler struct {
	HandlerFunc
	rejected []int
}

func (h *observingHandler) ObserveReject(_ context.Context, err *protocol.Error) {
	h.rejected = append(h.rejected, err.Code)
}

func TestProcess_ObservesRejects(t *testing.T) {
	var handled int
	h := &observingHandler{HandlerFunc: func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
		handled++
		return protocol.NewResponse(req.ID, "pong"), nil
	}}

	for _, body := range []string{`{"jsonrpc":`, `[{"jsonrpc":"2.0","method":"ping","id":1}]`, `{"jsonrpc":"2.0","method":"ping","id":2}`} {
		process(context.Background(), h, []byte(body))
	}

	want := []int{protocol.CodeParseError, protocol.CodeInvalidRequest}
	if len(h.rejected) != len(want) || h.rejected[0] != want[0] || h.rejected[1] != want[1] {
		t.Errorf("rejected = %v, want %v", h.rejected, want)
	}
	if handled != 1 {
		t.Errorf("handled = %d, want 1", handled)
	}
}
