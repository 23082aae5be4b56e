// Package purchaselog appends purchase records to a remote libSQL database
// (Turso) over its HTTP pipeline API.
//
// Each Append executes a single parameterised INSERT into item_price and
// closes the stream. Transient failures (network errors, 429 and 5xx) are
// retried with exponential backoff; a Retry-After header on 429 is honoured.
package purchaselog
