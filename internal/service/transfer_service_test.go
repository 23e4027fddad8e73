package service_test

import (
	"context"
	"sync"
	"testing"

	"digitalwallet/internal/models"
	"digitalwallet/internal/ratelimit"
	"digitalwallet/internal/repository"
	"digitalwallet/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTransferService(e *testEnv) *service.TransferService {
	return service.NewTransferService(e.store, e.wallets, e.transfers, e.cache, generousLimiter(), testLogger)
}

func TestTransfer_HappyPath(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromFloat(500.00))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromFloat(100.00))

	resp, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w2,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromFloat(50.00),
	})
	assert.NoError(t, err)
	assert.Equal(t, w1, resp.FromWallet)
	assert.Equal(t, w2, resp.ToWallet)
	assert.True(t, resp.TransferAmount.Equal(decimal.NewFromFloat(50.00)))
	assert.NotZero(t, resp.ID)

	assert.True(t, e.balance(t, w1).Equal(decimal.NewFromFloat(450.00)))
	assert.True(t, e.balance(t, w2).Equal(decimal.NewFromFloat(150.00)))
	assert.Equal(t, 1, e.ledgerSize(t))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromFloat(50.00))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromFloat(100.00))

	_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w2,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromFloat(100.00),
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)

	// Rejection leaves no trace: balances unchanged, no ledger row.
	assert.True(t, e.balance(t, w1).Equal(decimal.NewFromFloat(50.00)))
	assert.True(t, e.balance(t, w2).Equal(decimal.NewFromFloat(100.00)))
	assert.Equal(t, 0, e.ledgerSize(t))
}

func TestTransfer_CurrencyMismatch(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(500))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromInt(100))

	_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w2,
		Currency:       models.CurrencyUSD,
		TransferAmount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, service.ErrCurrencyMismatch)

	assert.True(t, e.balance(t, w1).Equal(decimal.NewFromInt(500)))
	assert.True(t, e.balance(t, w2).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0, e.ledgerSize(t))
}

func TestTransfer_SelfTransfer(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromFloat(100.00))

	resp, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w1,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromFloat(10.00),
	})
	assert.NoError(t, err)
	assert.Equal(t, w1, resp.FromWallet)
	assert.Equal(t, w1, resp.ToWallet)

	// Net zero, but the movement is still on the ledger.
	assert.True(t, e.balance(t, w1).Equal(decimal.NewFromFloat(100.00)))
	assert.Equal(t, 1, e.ledgerSize(t))
}

func TestTransfer_NotOwner(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(500))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromInt(100))

	_, err := svc.Transfer(context.Background(), bob, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w2,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.Equal(t, 0, e.ledgerSize(t))
}

func TestTransfer_WalletNotFound(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(500))

	_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w1 + 1000,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
	assert.Equal(t, 0, e.ledgerSize(t))
}

func TestTransfer_InvalidAmounts(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(500))

	for _, amount := range []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-5),
		decimal.NewFromInt(100001),
	} {
		_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
			FromWallet:     w1,
			ToWallet:       w1,
			Currency:       models.CurrencyEUR,
			TransferAmount: amount,
		})
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
	}
	assert.Equal(t, 0, e.ledgerSize(t))
}

func TestTransfer_RateLimited(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	limiter := ratelimit.NewLimiter(map[string]ratelimit.OpConfig{
		"transfer": {Capacity: 1, RefillPerSec: 0.001, PerKey: true},
	})
	svc := service.NewTransferService(e.store, e.wallets, e.transfers, e.cache, limiter, testLogger)

	alice := e.seedUser(t, "alice", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(500))

	req := models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w1,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromInt(1),
	}
	_, err := svc.Transfer(context.Background(), alice, req)
	assert.NoError(t, err)

	_, err = svc.Transfer(context.Background(), alice, req)
	assert.ErrorIs(t, err, service.ErrRateLimited)
	// The rejected request never touched the store.
	assert.Equal(t, 1, e.ledgerSize(t))
}

func TestTransfer_ConcurrentOnSamePair(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromFloat(100.00))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromFloat(0.00))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
				FromWallet:     w1,
				ToWallet:       w2,
				Currency:       models.CurrencyEUR,
				TransferAmount: decimal.NewFromFloat(1.00),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, e.balance(t, w1).Equal(decimal.NewFromFloat(50.00)))
	assert.True(t, e.balance(t, w2).Equal(decimal.NewFromFloat(50.00)))
	assert.Equal(t, 50, e.ledgerSize(t))
}

func TestTransfer_ConcurrentOpposingDirections(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(1000))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromInt(1000))

	// Opposing transfers on the same pair: canonical lock order keeps them
	// from deadlocking each other.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to, principal := w1, w2, alice
			if i%2 == 1 {
				from, to, principal = w2, w1, bob
			}
			_, err := svc.Transfer(context.Background(), principal, models.TransferRequest{
				FromWallet:     from,
				ToWallet:       to,
				Currency:       models.CurrencyEUR,
				TransferAmount: decimal.NewFromInt(5),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Conservation: the pair's combined balance is unchanged.
	sum := e.balance(t, w1).Add(e.balance(t, w2))
	assert.True(t, sum.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 20, e.ledgerSize(t))
}

func TestTransfer_EvictsCache(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	bob := e.seedUser(t, "bob", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(500))
	w2 := e.seedWallet(t, bob.ID, models.CurrencyEUR, decimal.NewFromInt(100))

	e.cache.SetWallet(context.Background(), &models.Wallet{ID: w1, UserID: alice.ID})
	e.cache.SetWallet(context.Background(), &models.Wallet{ID: w2, UserID: bob.ID})
	e.cache.SetUserWallets(context.Background(), alice.ID, []models.Wallet{{ID: w1}})
	e.cache.SetUserWallets(context.Background(), bob.ID, []models.Wallet{{ID: w2}})

	_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
		FromWallet:     w1,
		ToWallet:       w2,
		Currency:       models.CurrencyEUR,
		TransferAmount: decimal.NewFromInt(10),
	})
	assert.NoError(t, err)

	_, ok := e.cache.GetWallet(context.Background(), w1)
	assert.False(t, ok)
	_, ok = e.cache.GetWallet(context.Background(), w2)
	assert.False(t, ok)
	_, ok = e.cache.GetUserWallets(context.Background(), alice.ID)
	assert.False(t, ok)
	_, ok = e.cache.GetUserWallets(context.Background(), bob.ID)
	assert.False(t, ok)
}

func TestHistory_Pagination(t *testing.T) {
	e, teardown := setupEnv(t)
	defer teardown()
	svc := newTransferService(e)

	alice := e.seedUser(t, "alice", nil)
	w1 := e.seedWallet(t, alice.ID, models.CurrencyEUR, decimal.NewFromInt(1000))

	for i := 0; i < 15; i++ {
		_, err := svc.Transfer(context.Background(), alice, models.TransferRequest{
			FromWallet:     w1,
			ToWallet:       w1,
			Currency:       models.CurrencyEUR,
			TransferAmount: decimal.NewFromInt(1),
		})
		assert.NoError(t, err)
	}

	page1, err := svc.History(context.Background(), nil, 10)
	assert.NoError(t, err)
	assert.Len(t, page1.Data, 10)
	assert.NotNil(t, page1.NextCursor)

	page2, err := svc.History(context.Background(), page1.NextCursor, 10)
	assert.NoError(t, err)
	assert.Len(t, page2.Data, 5)
	assert.NotNil(t, page2.NextCursor)

	page3, err := svc.History(context.Background(), page2.NextCursor, 10)
	assert.NoError(t, err)
	assert.Empty(t, page3.Data)
	assert.Nil(t, page3.NextCursor)
}
