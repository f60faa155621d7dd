// Package sentinel holds infrastructure-level errors. Clients and stores return
// these (usually wrapped) and services translate them into coded domain errors.
//
//   - ErrNotFound: the key, CID or pointer does not exist
//   - ErrUnavailable: the backing system could not be reached or answered non-success
//   - ErrMalformed: a stored value exists but cannot be decoded
//   - ErrTimeout: an operation outlived its deadline with an unknown outcome
//   - ErrLocked: a resource lock is held by someone else
package sentinel

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrMalformed   = errors.New("malformed")
	ErrTimeout     = errors.New("timeout")
	ErrLocked      = errors.New("locked")
)
