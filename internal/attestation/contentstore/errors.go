package contentstore

import (
	"errors"
	"fmt"

	"keystone/pkg/platform/sentinel"
)

// Error is a normalized content store failure. Kind is one of sentinel.ErrUnavailable,
// sentinel.ErrMalformed or sentinel.ErrNotFound, so callers can use errors.Is.
type Error struct {
	Op         string
	CID        string
	Kind       error
	Message    string
	Underlying error
	// Retryable marks failures worth another upload attempt.
	Retryable bool
}

func (e *Error) Error() string {
	target := e.Op
	if e.CID != "" {
		target += " " + e.CID
	}
	if e.Underlying != nil {
		return fmt.Sprintf("content store %s [%v]: %s: %v", target, e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("content store %s [%v]: %s", target, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

func (e *Error) Is(target error) bool { return target == e.Kind }

func unavailable(op, cid, msg string, err error, retryable bool) *Error {
	return &Error{Op: op, CID: cid, Kind: sentinel.ErrUnavailable, Message: msg, Underlying: err, Retryable: retryable}
}

func malformed(op, cid, msg string, err error) *Error {
	return &Error{Op: op, CID: cid, Kind: sentinel.ErrMalformed, Message: msg, Underlying: err}
}

func notFound(op, cid string) *Error {
	return &Error{Op: op, CID: cid, Kind: sentinel.ErrNotFound, Message: "no content for cid"}
}

// IsRetryable reports whether another upload attempt may succeed. Errors from
// outside this package are assumed transient.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return true
}
