package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"keystone/internal/activity/handler/mocks"
	"keystone/internal/activity/models"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/testutil"
)

const rawWallet = "0x00000000000000000000000000000000000000AA"

func newRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func TestHandleList(t *testing.T) {
	wallet := domain.MustWalletAddress(rawWallet)

	t.Run("returns entries and total", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().List(gomock.Any(), wallet).Return([]models.Activity{
			{
				ID:            uuid.MustParse("6f1c1a52-3b0e-4e8e-9a61-2d2b8f0c9e11"),
				WalletAddress: wallet,
				Kind:          models.KindThirdPartyRequest,
				Timestamp:     time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
				Description:   "Third-party app requested verification data",
				AppName:       "DeFi App",
				Status:        "granted",
			},
		}, nil)

		rr := testutil.DoRequest(router, testutil.NewQueryRequest(t, "/activity", url.Values{"address": {rawWallet}}))

		require.Equal(t, http.StatusOK, rr.Code)
		body := testutil.DecodeMap(t, rr)
		assert.Equal(t, wallet.String(), body["walletAddress"])
		assert.EqualValues(t, 1, body["total"])
		entries := body["activities"].([]any)
		require.Len(t, entries, 1)
		entry := entries[0].(map[string]any)
		assert.Equal(t, "third_party_request", entry["type"])
		assert.Equal(t, "DeFi App", entry["appName"])
		assert.Equal(t, "2025-06-01T11:00:00Z", entry["timestamp"])
		assert.NotContains(t, entry, "verificationType")
	})

	t.Run("empty feed", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().List(gomock.Any(), wallet).Return([]models.Activity{}, nil)

		rr := testutil.DoRequest(router, testutil.NewQueryRequest(t, "/activity", url.Values{"address": {rawWallet}}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"walletAddress":"`+wallet.String()+`","activities":[],"total":0}`, rr.Body.String())
	})

	t.Run("missing address", func(t *testing.T) {
		router, _ := newRouter(t)
		rr := testutil.DoRequest(router, testutil.NewQueryRequest(t, "/activity", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	t.Run("invalid address", func(t *testing.T) {
		router, _ := newRouter(t)
		rr := testutil.DoRequest(router, testutil.NewQueryRequest(t, "/activity", url.Values{"address": {"not-a-wallet"}}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	t.Run("service failure", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().List(gomock.Any(), wallet).Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to list activity"))

		rr := testutil.DoRequest(router, testutil.NewQueryRequest(t, "/activity", url.Values{"address": {rawWallet}}))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}
