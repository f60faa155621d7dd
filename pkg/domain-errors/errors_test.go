package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("upload: %w", New(CodeStorageUnavailable, "gateway down"))
		assert.True(t, HasCode(err, CodeStorageUnavailable))
		assert.False(t, HasCode(err, CodeLedgerTimeout))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, CodeStorageUnavailable, "content store unreachable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "content store unreachable", Message(err))
	assert.Contains(t, err.Error(), "storage_unavailable")
}

func TestWithDetail(t *testing.T) {
	base := New(CodeLedgerTimeout, "transaction not settled")
	err := WithDetail(base, DetailTransactionHash, "0xabc")

	v, ok := Detail(err, DetailTransactionHash)
	require.True(t, ok)
	assert.Equal(t, "0xabc", v)
	assert.True(t, HasCode(err, CodeLedgerTimeout))

	_, ok = Detail(base, DetailTransactionHash)
	assert.False(t, ok, "original error must not be mutated")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeSignatureInvalid:   http.StatusUnauthorized,
		CodeNotFound:           http.StatusNotFound,
		CodeStorageUnavailable: http.StatusServiceUnavailable,
		CodeLedgerTimeout:      http.StatusServiceUnavailable,
		CodeLedgerUnderfunded:  http.StatusServiceUnavailable,
		CodeLedgerRejected:     http.StatusServiceUnavailable,
		CodeLedgerUnavailable:  http.StatusServiceUnavailable,
		CodeMalformedDocument:  http.StatusBadGateway,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), code)
	}
}

func TestRetrySemantics(t *testing.T) {
	assert.True(t, Retryable(CodeStorageUnavailable))
	assert.True(t, Retryable(CodeLedgerUnavailable))
	assert.False(t, Retryable(CodeLedgerTimeout))
	assert.True(t, NeedsReconcile(CodeLedgerTimeout))
	assert.False(t, NeedsReconcile(CodeLedgerRejected))
}
