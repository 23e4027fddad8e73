package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"digitalwallet/internal/cache"
	"digitalwallet/internal/models"
	"digitalwallet/internal/ratelimit"
	"digitalwallet/internal/repository"

	"github.com/jackc/pgx/v5"
)

const (
	transferMaxAttempts = 3
	transferBackoff     = 100 * time.Millisecond
)

// TransferService is the money movement engine: it atomically debits one
// wallet, credits another and appends a ledger row, all in one transaction.
type TransferService struct {
	store     TxStore
	wallets   WalletRepository
	transfers TransferRepository
	cache     cache.Cache
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

func NewTransferService(store TxStore, wallets WalletRepository, transfers TransferRepository,
	c cache.Cache, limiter *ratelimit.Limiter, logger *slog.Logger) *TransferService {
	return &TransferService{
		store:     store,
		wallets:   wallets,
		transfers: transfers,
		cache:     c,
		limiter:   limiter,
		logger:    logger,
	}
}

func (s *TransferService) Transfer(ctx context.Context, principal *models.User, req models.TransferRequest) (*models.TransferResponse, error) {
	if !s.limiter.Allow("transfer", strconv.FormatInt(principal.ID, 10)) {
		s.logger.Warn("Transfer rate limited", slog.Int64("user_id", principal.ID))
		return nil, ErrRateLimited
	}

	amount := req.TransferAmount
	if !amount.IsPositive() || amount.GreaterThan(maxOperationAmount) {
		return nil, ErrInvalidAmount
	}
	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyEUR
	}

	var (
		result    *models.Transfer
		fromOwner int64
		toOwner   int64
	)
	run := func(tx pgx.Tx) error {
		from, to, err := s.lockPair(ctx, tx, req.FromWallet, req.ToWallet)
		if err != nil {
			return err
		}
		if from.UserID != principal.ID {
			return ErrForbidden
		}
		if from.Currency != currency || to.Currency != currency {
			return ErrCurrencyMismatch
		}
		fromOwner, toOwner = from.UserID, to.UserID

		ok, err := s.wallets.DeductFunds(ctx, tx, amount, from.ID)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrInsufficientFunds
		}
		if err := s.wallets.AddFunds(ctx, tx, amount, to.ID); err != nil {
			return err
		}

		result, err = s.transfers.Append(ctx, tx, &models.Transfer{
			FromWallet:     from.ID,
			ToWallet:       to.ID,
			Currency:       currency,
			TransferAmount: amount,
		})
		return err
	}

	var err error
	for attempt := 0; attempt < transferMaxAttempts; attempt++ {
		if attempt > 0 {
			// 100ms, 200ms. Each retry re-reads wallet state inside a fresh
			// transaction; nothing from the failed attempt is reused.
			time.Sleep(transferBackoff << (attempt - 1))
		}
		err = s.store.WithTx(ctx, run)
		if err == nil {
			break
		}
		if !repository.IsRetryable(err) {
			return nil, err
		}
		s.logger.Warn("Retrying transfer",
			slog.Int64("from_wallet", req.FromWallet),
			slog.Int64("to_wallet", req.ToWallet),
			slog.Int("attempt", attempt+1),
			slog.Any("err", err),
		)
	}
	if err != nil {
		s.logger.Error("Transfer failed after retries",
			slog.Int64("from_wallet", req.FromWallet),
			slog.Int64("to_wallet", req.ToWallet),
			slog.Any("err", err),
		)
		return nil, ErrTransferConflict
	}

	// Eviction only after commit; the cache is never authoritative.
	s.cache.EvictWallet(ctx, req.FromWallet)
	s.cache.EvictWallet(ctx, req.ToWallet)
	s.cache.EvictUserWallets(ctx, fromOwner)
	s.cache.EvictUserWallets(ctx, toOwner)

	s.logger.Info("Transfer committed",
		slog.Int64("transfer_id", result.ID),
		slog.Int64("from_wallet", result.FromWallet),
		slog.Int64("to_wallet", result.ToWallet),
		slog.Any("amount", result.TransferAmount),
	)
	return mapTransfer(result), nil
}

// lockPair acquires both wallet row locks in ascending id order so that
// concurrent transfers on the same pair cannot form a deadlock cycle.
// Self-transfers lock the single row once.
func (s *TransferService) lockPair(ctx context.Context, tx pgx.Tx, fromID, toID int64) (*models.Wallet, *models.Wallet, error) {
	if fromID == toID {
		w, err := s.wallets.FindByIDForUpdate(ctx, tx, fromID)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}

	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	firstWallet, err := s.wallets.FindByIDForUpdate(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	secondWallet, err := s.wallets.FindByIDForUpdate(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if firstWallet.ID == fromID {
		return firstWallet, secondWallet, nil
	}
	return secondWallet, firstWallet, nil
}

// History pages the ledger in reverse-chronological order. The next cursor
// is the id of the last row returned, or nil when the page came back empty.
func (s *TransferService) History(ctx context.Context, cursor *int64, limit int) (*models.PagedResponse, error) {
	transfers, err := s.transfers.List(ctx, s.store.Reader(), cursor, limit)
	if err != nil {
		return nil, err
	}

	data := make([]models.TransferResponse, 0, len(transfers))
	for i := range transfers {
		data = append(data, *mapTransfer(&transfers[i]))
	}

	var nextCursor *int64
	if len(transfers) > 0 {
		last := transfers[len(transfers)-1].ID
		nextCursor = &last
	}
	return &models.PagedResponse{Data: data, NextCursor: nextCursor}, nil
}

func mapTransfer(t *models.Transfer) *models.TransferResponse {
	return &models.TransferResponse{
		ID:             t.ID,
		FromWallet:     t.FromWallet,
		ToWallet:       t.ToWallet,
		Currency:       t.Currency,
		TransferAmount: t.TransferAmount,
		TransferDate:   t.TransferDate,
	}
}
