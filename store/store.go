package store

import "errors"

// Failure kinds.
var (
	ErrConnect = errors.New("store: connect")
	ErrInsert  = errors.New("store: insert")
)

// Error carries the failure kind together with the driver error.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Cause returns the driver error behind err, or err itself when it did not
// come from this package.
func Cause(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}

func connectError(err error) error { return &Error{Kind: ErrConnect, Err: err} }
func insertError(err error) error  { return &Error{Kind: ErrInsert, Err: err} }
