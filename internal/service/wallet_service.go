package service

import (
	"context"
	"log/slog"
	"time"

	"digitalwallet/internal/cache"
	"digitalwallet/internal/models"
	"digitalwallet/internal/notifier"
	"digitalwallet/internal/repository"

	"github.com/shopspring/decimal"
)

// Deposits and transfers share the same per-operation ceiling.
var maxOperationAmount = decimal.NewFromInt(100000)

type WalletService struct {
	store    TxStore
	wallets  WalletRepository
	cache    cache.Cache
	notifier notifier.Notifier
	logger   *slog.Logger
}

func NewWalletService(store TxStore, wallets WalletRepository, c cache.Cache, n notifier.Notifier, logger *slog.Logger) *WalletService {
	return &WalletService{store: store, wallets: wallets, cache: c, notifier: n, logger: logger}
}

// Create opens a wallet for the principal. Currency defaults to EUR; a zero
// starting balance is permitted.
func (s *WalletService) Create(ctx context.Context, principal *models.User, req models.CreateWalletRequest) (*models.Wallet, error) {
	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyEUR
	}
	if req.Balance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	wallet := &models.Wallet{
		UserID:     principal.ID,
		Currency:   currency,
		Balance:    req.Balance,
		CreateTime: time.Now(),
	}
	id, err := s.wallets.Insert(ctx, s.store.Reader(), wallet)
	if err != nil {
		return nil, err
	}
	wallet.ID = id

	s.cache.EvictUserWallets(ctx, principal.ID)

	if principal.Email != nil {
		s.notifier.WalletCreated(*principal.Email, principal.Username,
			string(currency), wallet.Balance.String())
	}

	s.logger.Info("Wallet created",
		slog.Int64("wallet_id", id),
		slog.Int64("user_id", principal.ID),
		slog.String("currency", string(currency)),
	)
	return wallet, nil
}

// Deposit credits the principal's wallet. When the request names no wallet,
// the funds go to the primary wallet (lowest id).
func (s *WalletService) Deposit(ctx context.Context, principal *models.User, req models.DepositRequest) (decimal.Decimal, error) {
	amount := req.DepositAmount
	if !amount.IsPositive() || amount.GreaterThan(maxOperationAmount) {
		return decimal.Zero, ErrInvalidAmount
	}

	wallet, err := s.resolveDepositTarget(ctx, principal, req.WalletID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.wallets.AddFunds(ctx, s.store.Reader(), amount, wallet.ID); err != nil {
		return decimal.Zero, err
	}

	s.cache.EvictWallet(ctx, wallet.ID)
	s.cache.EvictUserWallets(ctx, principal.ID)

	newBalance := wallet.Balance.Add(amount)
	if principal.Email != nil {
		s.notifier.Deposit(*principal.Email, principal.Username,
			string(wallet.Currency), amount.String(), newBalance.String())
	}
	return newBalance, nil
}

func (s *WalletService) resolveDepositTarget(ctx context.Context, principal *models.User, walletID *int64) (*models.Wallet, error) {
	if walletID != nil {
		wallet, err := s.wallets.FindByID(ctx, s.store.Reader(), *walletID)
		if err != nil {
			return nil, err
		}
		if wallet.UserID != principal.ID {
			return nil, ErrForbidden
		}
		return wallet, nil
	}

	if wallets, ok := s.cache.GetUserWallets(ctx, principal.ID); ok && len(wallets) > 0 {
		return &wallets[0], nil
	}
	wallets, err := s.wallets.FindByUserID(ctx, s.store.Reader(), principal.ID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, repository.ErrWalletNotFound
	}
	s.cache.SetUserWallets(ctx, principal.ID, wallets)
	return &wallets[0], nil
}

// GetByID fetches a wallet, read-through cached, and enforces ownership.
func (s *WalletService) GetByID(ctx context.Context, principal *models.User, id int64) (*models.Wallet, error) {
	wallet, ok := s.cache.GetWallet(ctx, id)
	if !ok {
		var err error
		wallet, err = s.wallets.FindByID(ctx, s.store.Reader(), id)
		if err != nil {
			return nil, err
		}
		s.cache.SetWallet(ctx, wallet)
	}

	if wallet.UserID != principal.ID {
		return nil, ErrForbidden
	}
	return wallet, nil
}
