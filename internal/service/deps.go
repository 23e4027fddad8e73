package service

import (
	"context"

	"digitalwallet/internal/models"
	"digitalwallet/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=deps.go -destination=../../test/mock_deps.go -package=test

// TxStore is the slice of repository.Store the services depend on: a reader
// for single-statement work and a transactional scope for the engine.
type TxStore interface {
	Reader() repository.Querier
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (int64, error)
}

type WalletRepository interface {
	FindByID(ctx context.Context, q repository.Querier, id int64) (*models.Wallet, error)
	FindByIDForUpdate(ctx context.Context, q repository.Querier, id int64) (*models.Wallet, error)
	FindByUserID(ctx context.Context, q repository.Querier, userID int64) ([]models.Wallet, error)
	Insert(ctx context.Context, q repository.Querier, wallet *models.Wallet) (int64, error)
	AddFunds(ctx context.Context, q repository.Querier, amount decimal.Decimal, id int64) error
	DeductFunds(ctx context.Context, q repository.Querier, amount decimal.Decimal, id int64) (bool, error)
}

type TransferRepository interface {
	Append(ctx context.Context, q repository.Querier, transfer *models.Transfer) (*models.Transfer, error)
	List(ctx context.Context, q repository.Querier, cursor *int64, limit int) ([]models.Transfer, error)
}
