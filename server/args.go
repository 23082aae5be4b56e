package server

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// arguments is the decoded "arguments" object of a tools/call request.
// Lookups are lenient: a missing key and a value of the wrong JSON type
// look the same to the caller.
type arguments map[string]json.RawMessage

// parseArguments decodes raw into an argument map. Anything that is not a
// JSON object yields an empty map.
func parseArguments(raw json.RawMessage) arguments {
	var args arguments
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return arguments{}
	}
	return args
}

// str returns the string stored under key.
func (a arguments) str(key string) (string, bool) {
	raw, ok := a[key]
	if !ok || len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// number returns the numeric value stored under key, or 0.
func (a arguments) number(key string) float64 {
	n, ok := a.jsonNumber(key)
	if !ok {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// integer returns the value stored under key when it is a JSON integer that
// fits in an int64, or 0. Fractional and exponent forms do not count.
func (a arguments) integer(key string) int64 {
	n, ok := a.jsonNumber(key)
	if !ok {
		return 0
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0
	}
	return i
}

func (a arguments) jsonNumber(key string) (json.Number, bool) {
	raw, ok := a[key]
	if !ok || len(raw) == 0 {
		return "", false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", false
	}
	return n, true
}
