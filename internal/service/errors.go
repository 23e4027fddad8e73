package service

import "errors"

var (
	ErrInvalidAmount    = errors.New("amount must be positive and not exceed the limit")
	ErrForbidden        = errors.New("you don't have access to this wallet")
	ErrCurrencyMismatch = errors.New("currency mismatch: wallet currency does not match transfer currency")
	ErrRateLimited      = errors.New("too many requests, try again later")
	ErrUserExists       = errors.New("user exists already")
	ErrBadCredentials   = errors.New("invalid username or password")
	ErrTransferConflict = errors.New("transfer could not be completed, please retry")
)
