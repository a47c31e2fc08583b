package backend

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDustAmount        = errors.New("amount below dust limit")
	ErrCurrencyMismatch  = errors.New("currency does not match wallet")
	ErrInvalidPaperKey   = errors.New("paper key does not belong to this wallet")
	ErrUnknownTransfer   = errors.New("unknown transfer")
	ErrNoWallet          = errors.New("no wallet created")
	ErrWalletExists      = errors.New("wallet already created")
	ErrInvalidKey        = errors.New("invalid private key")
	ErrNoSweepFunds      = errors.New("no funds held by key")
)
