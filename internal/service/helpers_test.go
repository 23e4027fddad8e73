package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"digitalwallet/internal/models"
	"digitalwallet/internal/ratelimit"
	"digitalwallet/internal/repository"
	"digitalwallet/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeCache is an in-memory stand-in for the redis cache; tests only need
// the read-through and eviction semantics, not the transport.
type fakeCache struct {
	mu          sync.Mutex
	wallets     map[int64]models.Wallet
	userWallets map[int64][]models.Wallet
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		wallets:     make(map[int64]models.Wallet),
		userWallets: make(map[int64][]models.Wallet),
	}
}

func (c *fakeCache) GetWallet(_ context.Context, id int64) (*models.Wallet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.wallets[id]
	if !ok {
		return nil, false
	}
	copied := w
	return &copied, true
}

func (c *fakeCache) SetWallet(_ context.Context, wallet *models.Wallet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wallets[wallet.ID] = *wallet
}

func (c *fakeCache) EvictWallet(_ context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.wallets, id)
}

func (c *fakeCache) GetUserWallets(_ context.Context, userID int64) ([]models.Wallet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.userWallets[userID]
	return w, ok
}

func (c *fakeCache) SetUserWallets(_ context.Context, userID int64, wallets []models.Wallet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userWallets[userID] = wallets
}

func (c *fakeCache) EvictUserWallets(_ context.Context, userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.userWallets, userID)
}

type notification struct {
	kind       string
	to         string
	username   string
	currency   string
	amount     string
	newBalance string
}

// recordingNotifier captures notifications instead of sending mail.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) WalletCreated(to, username, currency, balance string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{
		kind: "wallet_created", to: to, username: username,
		currency: currency, newBalance: balance,
	})
}

func (n *recordingNotifier) Deposit(to, username, currency, amount, newBalance string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{
		kind: "deposit", to: to, username: username,
		currency: currency, amount: amount, newBalance: newBalance,
	})
}

func (n *recordingNotifier) snapshot() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

func generousLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(map[string]ratelimit.OpConfig{
		"login":    {Capacity: 1000, RefillPerSec: 1000, PerKey: true},
		"transfer": {Capacity: 1000, RefillPerSec: 1000, PerKey: true},
	})
}

type testEnv struct {
	store     *repository.Store
	users     *repository.UserPGRepository
	wallets   *repository.WalletPGRepository
	transfers *repository.TransferPGRepository
	cache     *fakeCache
	notifier  *recordingNotifier
}

func setupEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	pool, teardown := testutil.SetupTestDB(t)
	store := repository.NewStore(pool, testLogger)
	return &testEnv{
		store:     store,
		users:     repository.NewUserPGRepository(store, testLogger),
		wallets:   repository.NewWalletPGRepository(store, testLogger),
		transfers: repository.NewTransferPGRepository(store, testLogger),
		cache:     newFakeCache(),
		notifier:  &recordingNotifier{},
	}, teardown
}

func (e *testEnv) seedUser(t *testing.T, username string, email *string) *models.User {
	t.Helper()
	user := &models.User{
		Email:            email,
		Username:         username,
		Password:         "hash",
		MembershipStatus: models.MembershipFree,
		Role:             models.RoleUser,
	}
	id, err := e.users.Insert(context.Background(), user)
	assert.NoError(t, err)
	user.ID = id
	return user
}

func (e *testEnv) seedWallet(t *testing.T, userID int64, currency models.Currency, balance decimal.Decimal) int64 {
	t.Helper()
	id, err := e.wallets.Insert(context.Background(), e.store.Pool, &models.Wallet{
		UserID:   userID,
		Currency: currency,
		Balance:  balance,
	})
	assert.NoError(t, err)
	return id
}

func (e *testEnv) balance(t *testing.T, walletID int64) decimal.Decimal {
	t.Helper()
	wallet, err := e.wallets.FindByID(context.Background(), e.store.Pool, walletID)
	assert.NoError(t, err)
	return wallet.Balance
}

func (e *testEnv) ledgerSize(t *testing.T) int {
	t.Helper()
	rows, err := e.transfers.List(context.Background(), e.store.Pool, nil, 1000)
	assert.NoError(t, err)
	return len(rows)
}
