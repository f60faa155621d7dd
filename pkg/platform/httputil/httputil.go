// Package httputil holds the JSON response and request helpers shared by handlers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "keystone/pkg/domain-errors"
)

// maxBodyBytes bounds decoded request bodies.
const maxBodyBytes = 1 << 20

// Validatable is implemented by request DTOs.
type Validatable interface {
	Validate() error
}

// ErrorResponse is the wire envelope for failed requests.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Retry            *bool  `json:"retry,omitempty"`
	Reconcile        bool   `json:"reconcile,omitempty"`
	TransactionHash  string `json:"transaction_hash,omitempty"`
	CID              string `json:"cid,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and error envelope. Internal errors never
// expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	resp := ErrorResponse{Error: string(code)}
	if status != http.StatusInternalServerError {
		resp.ErrorDescription = dErrors.Message(err)
	}
	if status == http.StatusServiceUnavailable {
		retry := dErrors.Retryable(code)
		resp.Retry = &retry
		resp.Reconcile = dErrors.NeedsReconcile(code)
	}
	if txHash, ok := dErrors.Detail(err, dErrors.DetailTransactionHash); ok {
		resp.TransactionHash = txHash
	}
	if cid, ok := dErrors.Detail(err, dErrors.DetailCID); ok && status != http.StatusInternalServerError {
		resp.CID = cid
	}

	WriteJSON(w, status, resp)
}

// DecodeAndPrepare decodes the JSON body into a new T and validates it. On
// failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid json payload"))
		return nil, false
	}

	if err := req.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
