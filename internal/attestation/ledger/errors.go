// Package ledger reads and writes attestation pointers on the on-chain registry.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"

	"keystone/pkg/platform/sentinel"
)

// Failure kinds. Read failures use sentinel.ErrUnavailable; a settlement wait that
// runs out uses sentinel.ErrTimeout.
var (
	ErrUnderfunded = errors.New("ledger account underfunded")
	ErrRejected    = errors.New("ledger rejected transaction")
)

// Error describes a failed ledger operation. TxHash is set once a transaction has
// been submitted, which is what makes a timeout ambiguous rather than a failure.
type Error struct {
	Op         string
	Kind       error
	TxHash     string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ledger %s [%v]: %s", e.Op, e.Kind, e.Message)
	if e.TxHash != "" {
		fmt.Fprintf(&b, " (tx %s)", e.TxHash)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Underlying }

func (e *Error) Is(target error) bool { return target == e.Kind }

// TxHashOf returns the submitted transaction hash carried by err, if any.
func TxHashOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.TxHash
	}
	return ""
}

func readError(op string, err error) *Error {
	return &Error{Op: op, Kind: sentinel.ErrUnavailable, Message: "registry read failed", Underlying: err}
}

// classifySubmitError maps node errors from estimation or submission to a kind.
func classifySubmitError(op string, err error) *Error {
	if isTransportError(err) {
		return &Error{Op: op, Kind: sentinel.ErrUnavailable, Message: "ledger node unreachable", Underlying: err}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient funds") || strings.Contains(msg, "gas required exceeds allowance") {
		return &Error{Op: op, Kind: ErrUnderfunded, Message: "backend wallet cannot pay for gas", Underlying: err}
	}
	return &Error{Op: op, Kind: ErrRejected, Message: rejectionMessage(err), Underlying: err}
}

// classifySendError is classifySubmitError for the broadcast itself. A transport
// failure there leaves the signed transaction possibly in the mempool, so it is
// reported like a settlement timeout with the hash to reconcile against.
func classifySendError(err error, txHash string) *Error {
	if isTransportError(err) {
		return &Error{Op: "submit", Kind: sentinel.ErrTimeout, TxHash: txHash, Message: "submission outcome unknown", Underlying: err}
	}
	return classifySubmitError("submit", err)
}

// isTransportError reports whether err happened below the JSON-RPC layer, as
// opposed to a node answering with an error.
func isTransportError(err error) bool {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func rejectionMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		return msg[i:]
	}
	return "transaction rejected"
}
