// Package protocol defines the JSON-RPC 2.0 envelope, the error model and the
// MCP result shapes served by the gateway.
//
// # Envelope
//
// DecodeRequest turns a request body into a Request. Bodies that are not
// JSON yield a parse error (-32700); JSON that is not an object yields an
// invalid request (-32600). In both cases the response id is null.
//
// Field-level problems are deferred to Request.Validate so that the caller
// can authenticate first:
//
//	req, perr := protocol.DecodeRequest(body)
//	if perr != nil {
//	    return protocol.NewErrorResponse(nil, perr)
//	}
//	// ... authenticate ...
//	if verr := req.Validate(); verr != nil {
//	    return protocol.NewErrorResponse(req.ID, verr)
//	}
//
// Response always encodes exactly one of result or error and always carries
// an id, null when the request had none.
//
// # Error Codes
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Bad or missing jsonrpc version
//	CodeMethodNotFound = -32601  // Unknown method
//	CodeInvalidParams  = -32602  // Missing or invalid tool name or arguments
//	CodeInternalError  = -32603  // Storage or network failure
//	CodeUnauthorized   = -32001  // Shared secret mismatch
package protocol
