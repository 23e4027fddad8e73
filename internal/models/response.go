package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
}

type WalletResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Currency    Currency        `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedDate time.Time       `json:"createdDate"`
}

type TransferResponse struct {
	ID             int64           `json:"id"`
	FromWallet     int64           `json:"fromWallet"`
	ToWallet       int64           `json:"toWallet"`
	Currency       Currency        `json:"currency"`
	TransferAmount decimal.Decimal `json:"transferAmount"`
	TransferDate   time.Time       `json:"transferDate"`
}

type PagedResponse struct {
	Data       []TransferResponse `json:"data"`
	NextCursor *int64             `json:"nextCursor"`
}
