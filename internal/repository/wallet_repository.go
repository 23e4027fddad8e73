package repository

import (
	"context"
	"errors"
	"log/slog"

	"digitalwallet/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

const walletColumns = "id, user_id, currency, balance, create_time"

type WalletPGRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewWalletPGRepository(store *Store, logger *slog.Logger) *WalletPGRepository {
	return &WalletPGRepository{store: store, logger: logger}
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.CreateTime)
	if err == pgx.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletPGRepository) FindByID(ctx context.Context, q Querier, id int64) (*models.Wallet, error) {
	wallet, err := scanWallet(q.QueryRow(ctx,
		"SELECT "+walletColumns+" FROM wallet WHERE id = $1", id))
	if err != nil && err != ErrWalletNotFound {
		r.logger.Error("Failed to find wallet",
			slog.Int64("wallet_id", id),
			slog.Any("err", err),
		)
	}
	return wallet, err
}

// FindByIDForUpdate locks the wallet row for the remainder of the current
// transaction. q must be a pgx.Tx.
func (r *WalletPGRepository) FindByIDForUpdate(ctx context.Context, q Querier, id int64) (*models.Wallet, error) {
	wallet, err := scanWallet(q.QueryRow(ctx,
		"SELECT "+walletColumns+" FROM wallet WHERE id = $1 FOR UPDATE", id))
	if err != nil && err != ErrWalletNotFound {
		r.logger.Error("Failed to lock wallet",
			slog.Int64("wallet_id", id),
			slog.Any("err", err),
		)
	}
	return wallet, err
}

// FindByUserID returns all wallets owned by the user, lowest id first. The
// first row is the user's primary wallet.
func (r *WalletPGRepository) FindByUserID(ctx context.Context, q Querier, userID int64) ([]models.Wallet, error) {
	rows, err := q.Query(ctx,
		"SELECT "+walletColumns+" FROM wallet WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		r.logger.Error("Failed to find wallets by user",
			slog.Int64("user_id", userID),
			slog.Any("err", err),
		)
		return nil, err
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.CreateTime); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (r *WalletPGRepository) Insert(ctx context.Context, q Querier, wallet *models.Wallet) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO wallet (user_id, currency, balance, create_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		wallet.UserID, wallet.Currency, wallet.Balance, wallet.CreateTime,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert wallet",
			slog.Int64("user_id", wallet.UserID),
			slog.Any("err", err),
		)
		return 0, err
	}
	return id, nil
}

func (r *WalletPGRepository) AddFunds(ctx context.Context, q Querier, amount decimal.Decimal, id int64) error {
	tag, err := q.Exec(ctx,
		"UPDATE wallet SET balance = balance + $1 WHERE id = $2", amount, id)
	if err != nil {
		r.logger.Error("Failed to add funds",
			slog.Int64("wallet_id", id),
			slog.Any("amount", amount),
			slog.Any("err", err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// DeductFunds performs the conditional decrement: the row only changes when
// the remaining balance stays non-negative. Returns whether a row was
// affected; false means insufficient funds.
func (r *WalletPGRepository) DeductFunds(ctx context.Context, q Querier, amount decimal.Decimal, id int64) (bool, error) {
	tag, err := q.Exec(ctx,
		"UPDATE wallet SET balance = balance - $1 WHERE id = $2 AND balance >= $1", amount, id)
	if err != nil {
		r.logger.Error("Failed to deduct funds",
			slog.Int64("wallet_id", id),
			slog.Any("amount", amount),
			slog.Any("err", err),
		)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
