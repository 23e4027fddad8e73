package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyGBP:
		return true
	}
	return false
}

type MembershipStatus string

const (
	MembershipFree    MembershipStatus = "FREE"
	MembershipPremium MembershipStatus = "PREMIUM"
	MembershipUltra   MembershipStatus = "ULTRA"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID               int64            `db:"id" json:"id"`
	Email            *string          `db:"email" json:"email,omitempty"`
	Username         string           `db:"username" json:"username"`
	Password         string           `db:"password" json:"-"`
	MembershipStatus MembershipStatus `db:"subscription_status" json:"membershipStatus"`
	Role             Role             `db:"-" json:"role"`
}

type Wallet struct {
	ID         int64           `db:"id" json:"walletId"`
	UserID     int64           `db:"user_id" json:"userId"`
	Currency   Currency        `db:"currency" json:"currency"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	CreateTime time.Time       `db:"create_time" json:"createTime"`
}

type Transfer struct {
	ID             int64           `db:"id" json:"id"`
	FromWallet     int64           `db:"from_wallet" json:"fromWallet"`
	ToWallet       int64           `db:"to_wallet" json:"toWallet"`
	Currency       Currency        `db:"currency" json:"currency"`
	TransferAmount decimal.Decimal `db:"transfer_amount" json:"transferAmount"`
	TransferDate   time.Time       `db:"transfer_date" json:"transferDate"`
}
