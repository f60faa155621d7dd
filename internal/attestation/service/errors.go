package service

import (
	"errors"

	"keystone/internal/attestation/contentstore"
	"keystone/internal/attestation/ledger"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
)

// storageError translates a content store failure, naming the CID involved
// when the store reported one.
func storageError(err error) error {
	var wrapped error
	if errors.Is(err, sentinel.ErrMalformed) {
		wrapped = dErrors.Wrap(err, dErrors.CodeMalformedDocument, "stored document is malformed")
	} else {
		wrapped = dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "Storage service unavailable")
	}
	var se *contentstore.Error
	if errors.As(err, &se) && se.CID != "" {
		wrapped = dErrors.WithDetail(wrapped, dErrors.DetailCID, se.CID)
	}
	return wrapped
}

// ledgerWriteError translates an anchor failure. Timeouts carry the submitted
// transaction hash so the client can reconcile.
func ledgerWriteError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrTimeout):
		wrapped := dErrors.Wrap(err, dErrors.CodeLedgerTimeout, "ledger write not confirmed in time; check anchor status before retrying")
		if txHash := ledger.TxHashOf(err); txHash != "" {
			wrapped = dErrors.WithDetail(wrapped, dErrors.DetailTransactionHash, txHash)
		}
		return wrapped
	case errors.Is(err, ledger.ErrUnderfunded):
		return dErrors.Wrap(err, dErrors.CodeLedgerUnderfunded, "ledger account cannot pay for gas")
	case errors.Is(err, ledger.ErrRejected):
		msg := "ledger rejected the transaction"
		var le *ledger.Error
		if errors.As(err, &le) && le.Message != "" {
			msg = le.Message
		}
		return dErrors.Wrap(err, dErrors.CodeLedgerRejected, msg)
	default:
		return ledgerReadError(err)
	}
}

func ledgerReadError(err error) error {
	return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "Blockchain service unavailable")
}
