package protocol

import (
	"bytes"
	"encoding/json"
	"io"
)

// DecodeRequest parses a request body.
//
// A non-nil error is returned only when nothing usable could be read from the
// body: invalid JSON (parse error) or JSON that is not an object (invalid
// request). In both cases the caller must answer with a null id.
//
// Field-level problems (wrong jsonrpc version, non-string method, bad id type)
// do not fail decoding. They are recorded on the request and reported by
// Validate, so that authentication can run before the envelope is judged.
func DecodeRequest(data []byte) (*Request, *Error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return nil, NewParseError(MsgParseError)
	}
	if data[0] != '{' {
		// Batches and bare scalars are not supported.
		return nil, NewInvalidRequest(MsgInvalidRequest)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, NewParseError(MsgParseError).WithData(err.Error())
	}

	req := &Request{}

	if raw, ok := fields["id"]; ok {
		if validID(raw) {
			if string(raw) != "null" {
				req.ID = raw
			}
		} else {
			req.invalid = NewInvalidRequest(MsgInvalidRequest).WithData("id must be a string, number or null")
		}
	}

	if raw, ok := fields["jsonrpc"]; ok {
		if err := json.Unmarshal(raw, &req.JSONRPC); err != nil && req.invalid == nil {
			req.invalid = NewInvalidRequest(MsgInvalidRequest).WithData("jsonrpc must be a string")
		}
	}

	raw, ok := fields["method"]
	switch {
	case !ok:
		if req.invalid == nil {
			req.invalid = NewInvalidRequest(MsgInvalidRequest).WithData("method is required")
		}
	case string(raw) == "null":
		if req.invalid == nil {
			req.invalid = NewInvalidRequest(MsgInvalidRequest).WithData("method must be a string")
		}
	default:
		if err := json.Unmarshal(raw, &req.Method); err != nil && req.invalid == nil {
			req.invalid = NewInvalidRequest(MsgInvalidRequest).WithData("method must be a string")
		}
	}

	if raw, ok := fields["params"]; ok && string(raw) != "null" {
		req.Params = raw
	}

	return req, nil
}

// Validate checks the envelope invariants: the protocol version must be
// exactly "2.0" and the remaining fields must have decoded cleanly.
func (r *Request) Validate() *Error {
	if r.JSONRPC != JSONRPCVersion {
		return NewInvalidRequest(MsgInvalidRequest)
	}
	if r.invalid != nil {
		return r.invalid
	}
	return nil
}

// validID reports whether raw is a string, number or null.
func validID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	switch c := raw[0]; {
	case c == '"', c == '-', c >= '0' && c <= '9':
		return true
	case string(raw) == "null":
		return true
	default:
		return false
	}
}

// EncodeResponse writes resp as a single JSON document followed by a newline.
func EncodeResponse(w io.Writer, resp *Response) error {
	return json.NewEncoder(w).Encode(resp)
}

// ErrorResponseFor builds the error response for err, echoing id.
func ErrorResponseFor(id json.RawMessage, err error) *Response {
	return NewErrorResponse(id, AsError(err))
}
