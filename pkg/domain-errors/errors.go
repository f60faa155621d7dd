// Package domainerrors defines coded errors shared by services and transports.
//
// Services return these so handlers can map them to HTTP responses without
// inspecting error strings. Infrastructure facts (not found, unavailable) live in
// pkg/platform/sentinel and are translated into coded errors at the service layer.
package domainerrors

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// Code identifies an error class. Codes are stable and appear on the wire.
type Code string

const (
	CodeInternal       Code = "internal_error"
	CodeBadRequest     Code = "bad_request"
	CodeInvalidRequest Code = "invalid_request"
	CodeInvalidInput   Code = "invalid_input"
	CodeValidation     Code = "validation_error"
	CodeNotFound       Code = "not_found"
	CodeUnauthorized   Code = "unauthorized"
	CodeForbidden      Code = "forbidden"
	CodeConflict       Code = "conflict"
	CodeTimeout        Code = "timeout"

	// Attestation pipeline failures.
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeMalformedDocument  Code = "malformed_document"
	CodeLedgerTimeout      Code = "ledger_timeout"
	CodeLedgerUnderfunded  Code = "ledger_underfunded"
	CodeLedgerRejected     Code = "ledger_rejected"
	CodeLedgerUnavailable  Code = "ledger_unavailable"
	CodeSignatureInvalid   Code = "signature_invalid"
)

// Detail keys attached to errors.
const (
	DetailTransactionHash = "transaction_hash"
	DetailCID             = "cid"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetail returns a copy of err carrying key=value. Non-coded errors are
// wrapped as internal errors first.
func WithDetail(err error, key, value string) error {
	var de *Error
	if !errors.As(err, &de) {
		de = &Error{Code: CodeInternal, Message: "internal error", Err: err}
	}
	cp := *de
	cp.Details = maps.Clone(de.Details)
	if cp.Details == nil {
		cp.Details = make(map[string]string, 1)
	}
	cp.Details[key] = value
	return &cp
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Detail returns the detail stored under key, if any.
func Detail(err error, key string) (string, bool) {
	var de *Error
	if !errors.As(err, &de) || de.Details == nil {
		return "", false
	}
	v, ok := de.Details[key]
	return v, ok
}

// Message returns the client-facing message of a coded error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeSignatureInvalid:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeMalformedDocument:
		return http.StatusBadGateway
	case CodeStorageUnavailable, CodeLedgerTimeout, CodeLedgerUnderfunded, CodeLedgerRejected, CodeLedgerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a client may safely repeat the request.
// A ledger timeout is ambiguous: the write may still land, so it is not retryable
// until reconciled.
func Retryable(code Code) bool {
	switch code {
	case CodeStorageUnavailable, CodeLedgerUnderfunded, CodeLedgerRejected, CodeLedgerUnavailable:
		return true
	default:
		return false
	}
}

// NeedsReconcile reports whether the outcome of a write is unknown.
func NeedsReconcile(code Code) bool {
	return code == CodeLedgerTimeout
}
