package models

import (
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Email    *string          `json:"email"`
	Username string           `json:"username" binding:"required"`
	Password string           `json:"password" binding:"required,min=5,max=10"`
	Status   MembershipStatus `json:"status" binding:"omitempty,oneof=FREE PREMIUM ULTRA"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateWalletRequest struct {
	Currency Currency        `json:"currency" binding:"omitempty,oneof=EUR USD GBP"`
	Balance  decimal.Decimal `json:"balance"`
}

// WalletID is optional: when absent the deposit goes to the caller's
// primary wallet (the one with the lowest id).
type DepositRequest struct {
	DepositAmount decimal.Decimal `json:"depositAmount" binding:"required"`
	WalletID      *int64          `json:"walletId"`
}

type TransferRequest struct {
	FromWallet     int64           `json:"fromWallet" binding:"required"`
	ToWallet       int64           `json:"toWallet" binding:"required"`
	Currency       Currency        `json:"currency" binding:"omitempty,oneof=EUR USD GBP"`
	TransferAmount decimal.Decimal `json:"transferAmount" binding:"required"`
}
