package test

import (
	"context"
	"testing"

	"digitalwallet/internal/cache"
	"digitalwallet/internal/models"
	"digitalwallet/internal/ratelimit"
	"digitalwallet/internal/service"

	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type transferMocks struct {
	store     *MockTxStore
	wallets   *MockWalletRepository
	transfers *MockTransferRepository
}

func newMockedTransferService(t *testing.T) (*service.TransferService, transferMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := transferMocks{
		store:     NewMockTxStore(ctrl),
		wallets:   NewMockWalletRepository(ctrl),
		transfers: NewMockTransferRepository(ctrl),
	}
	limiter := ratelimit.NewLimiter(map[string]ratelimit.OpConfig{
		"transfer": {Capacity: 1000, RefillPerSec: 1000, PerKey: true},
	})
	svc := service.NewTransferService(m.store, m.wallets, m.transfers, cache.NewNoop(), limiter, testLogger)
	return svc, m
}

// passThroughTx runs the transaction body directly; the mocked repositories
// never touch the Querier they are handed.
func passThroughTx(_ context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

func TestTransfer_RetryOnSerializationFailure(t *testing.T) {
	svc, m := newMockedTransferService(t)

	alice := &models.User{ID: 1, Username: "alice"}
	src := &models.Wallet{ID: 1, UserID: 1, Currency: models.CurrencyEUR, Balance: decimal.NewFromInt(100)}
	dst := &models.Wallet{ID: 2, UserID: 2, Currency: models.CurrencyEUR, Balance: decimal.NewFromInt(50)}
	amount := decimal.NewFromInt(10)

	// First attempt fails with a retryable SQLSTATE, second succeeds.
	retryErr := &pgconn.PgError{Code: "40001", Message: "serialization failure"}
	m.store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(passThroughTx).Times(2)
	m.wallets.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(1)).Return(src, nil).Times(2)
	m.wallets.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(2)).Return(dst, nil).Times(2)
	gomock.InOrder(
		m.wallets.EXPECT().
			DeductFunds(gomock.Any(), gomock.Any(), amount, int64(1)).
			Return(false, retryErr),
		m.wallets.EXPECT().
			DeductFunds(gomock.Any(), gomock.Any(), amount, int64(1)).
			Return(true, nil),
	)
	m.wallets.EXPECT().AddFunds(gomock.Any(), gomock.Any(), amount, int64(2)).Return(nil)
	m.transfers.EXPECT().
		Append(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Transfer{
			ID:             9,
			FromWallet:     1,
			ToWallet:       2,
			Currency:       models.CurrencyEUR,
			TransferAmount: amount,
		}, nil)

	resp, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     1,
		ToWallet:       2,
		Currency:       models.CurrencyEUR,
		TransferAmount: amount,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(9), resp.ID)
	assert.True(t, resp.TransferAmount.Equal(amount))
}

func TestTransfer_RetriesExhaustedOnDeadlock(t *testing.T) {
	svc, m := newMockedTransferService(t)

	alice := &models.User{ID: 1, Username: "alice"}
	src := &models.Wallet{ID: 1, UserID: 1, Currency: models.CurrencyEUR, Balance: decimal.NewFromInt(100)}
	dst := &models.Wallet{ID: 2, UserID: 2, Currency: models.CurrencyEUR, Balance: decimal.NewFromInt(50)}
	amount := decimal.NewFromInt(10)

	// Every attempt deadlocks; the engine gives up after its third.
	retryErr := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	m.store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(passThroughTx).Times(3)
	m.wallets.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(1)).Return(src, nil).Times(3)
	m.wallets.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(2)).Return(dst, nil).Times(3)
	m.wallets.EXPECT().
		DeductFunds(gomock.Any(), gomock.Any(), amount, int64(1)).
		Return(false, retryErr).
		Times(3)

	_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     1,
		ToWallet:       2,
		Currency:       models.CurrencyEUR,
		TransferAmount: amount,
	})
	assert.ErrorIs(t, err, service.ErrTransferConflict)
}

func TestTransfer_NonRetryableErrorNotRetried(t *testing.T) {
	svc, m := newMockedTransferService(t)

	alice := &models.User{ID: 1, Username: "alice"}
	src := &models.Wallet{ID: 1, UserID: 1, Currency: models.CurrencyEUR, Balance: decimal.NewFromInt(100)}
	dst := &models.Wallet{ID: 2, UserID: 2, Currency: models.CurrencyEUR, Balance: decimal.NewFromInt(50)}
	amount := decimal.NewFromInt(10)

	m.store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(passThroughTx).Times(1)
	m.wallets.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(1)).Return(src, nil)
	m.wallets.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any(), int64(2)).Return(dst, nil)
	m.wallets.EXPECT().
		DeductFunds(gomock.Any(), gomock.Any(), amount, int64(1)).
		Return(false, assert.AnError)

	_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     1,
		ToWallet:       2,
		Currency:       models.CurrencyEUR,
		TransferAmount: amount,
	})
	assert.ErrorIs(t, err, assert.AnError)
}
