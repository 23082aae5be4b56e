package protocol

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "simple error message",
			err:  &Error{Code: CodeInternalError, Message: "something went wrong"},
			want: "jsonrpc: something went wrong (code: -32603)",
		},
		{
			name: "unauthorized",
			err:  NewUnauthorized(MsgUnauthorized),
			want: "jsonrpc: Unauthorized: Invalid API key (code: -32001)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err1 := NewInternalError("test")
	err2 := NewInternalError("different message")
	err3 := NewInvalidParams("test")

	if !errors.Is(err1, err2) {
		t.Error("errors with same code should match with errors.Is")
	}

	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match with errors.Is")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code int
	}{
		{"parse", NewParseError(MsgParseError), -32700},
		{"invalid request", NewInvalidRequest(MsgInvalidRequest), -32600},
		{"method not found", NewMethodNotFound(MsgMethodNotFound), -32601},
		{"invalid params", NewInvalidParams(MsgInvalidParams), -32602},
		{"internal", NewInternalError(MsgInternalError), -32603},
		{"unauthorized", NewUnauthorized(MsgUnauthorized), -32001},
		{"rate limited", NewRateLimited("slow down"), -32003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
		})
	}
}

func TestError_WithData(t *testing.T) {
	original := NewInvalidParams("bad")
	withData := original.WithData("detail")

	if original.Data != nil {
		t.Error("WithData must not mutate the receiver")
	}
	if withData.Data != "detail" {
		t.Errorf("Data = %v, want %q", withData.Data, "detail")
	}
	if withData.Code != original.Code {
		t.Errorf("Code = %d, want %d", withData.Code, original.Code)
	}
}

func TestAsError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if got := AsError(nil); got != nil {
			t.Errorf("AsError(nil) = %v, want nil", got)
		}
	})

	t.Run("protocol error passes through", func(t *testing.T) {
		in := NewInvalidParams("Title is required")
		if got := AsError(in); got != in {
			t.Errorf("AsError() = %v, want %v", got, in)
		}
	})

	t.Run("wrapped protocol error is unwrapped", func(t *testing.T) {
		in := NewUnauthorized(MsgUnauthorized)
		got := AsError(fmt.Errorf("auth: %w", in))
		if got.Code != CodeUnauthorized {
			t.Errorf("Code = %d, want %d", got.Code, CodeUnauthorized)
		}
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := AsError(errors.New("disk full"))
		if got.Code != CodeInternalError {
			t.Errorf("Code = %d, want %d", got.Code, CodeInternalError)
		}
		if got.Message != "disk full" {
			t.Errorf("Message = %q, want %q", got.Message, "disk full")
		}
	})
}
