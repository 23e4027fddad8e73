package repository

import (
	"context"
	"log/slog"

	"digitalwallet/internal/models"

	"github.com/jackc/pgx/v5"
)

type TransferPGRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewTransferPGRepository(store *Store, logger *slog.Logger) *TransferPGRepository {
	return &TransferPGRepository{store: store, logger: logger}
}

// Append records one committed movement of funds. The id and timestamp are
// assigned by the database; the ledger is append-only.
func (r *TransferPGRepository) Append(ctx context.Context, q Querier, transfer *models.Transfer) (*models.Transfer, error) {
	err := q.QueryRow(ctx, `
		INSERT INTO transfer (from_wallet, to_wallet, currency, transfer_amount, transfer_date)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, transfer_date`,
		transfer.FromWallet, transfer.ToWallet, transfer.Currency, transfer.TransferAmount,
	).Scan(&transfer.ID, &transfer.TransferDate)
	if err != nil {
		r.logger.Error("Failed to append transfer",
			slog.Int64("from_wallet", transfer.FromWallet),
			slog.Int64("to_wallet", transfer.ToWallet),
			slog.Any("err", err),
		)
		return nil, err
	}
	return transfer, nil
}

// List pages the ledger newest-first. A nil cursor starts from the top;
// otherwise only rows with id < cursor are returned.
func (r *TransferPGRepository) List(ctx context.Context, q Querier, cursor *int64, limit int) ([]models.Transfer, error) {
	const cols = "id, from_wallet, to_wallet, currency, transfer_amount, transfer_date"

	var (
		rows pgx.Rows
		err  error
	)
	if cursor == nil {
		rows, err = q.Query(ctx,
			"SELECT "+cols+" FROM transfer ORDER BY id DESC LIMIT $1", limit)
	} else {
		rows, err = q.Query(ctx,
			"SELECT "+cols+" FROM transfer WHERE id < $1 ORDER BY id DESC LIMIT $2", *cursor, limit)
	}
	if err != nil {
		r.logger.Error("Failed to list transfers", slog.Any("err", err))
		return nil, err
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.FromWallet, &t.ToWallet, &t.Currency, &t.TransferAmount, &t.TransferDate); err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}
