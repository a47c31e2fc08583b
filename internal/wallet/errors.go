package wallet

import "errors"

var (
	// ErrInvalidAddress is returned when a destination cannot be parsed for the
	// wallet's network, or a payment request has no primary target.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmountOrFee is returned when the native layer refuses to build
	// a transfer. The native layer does not say why (insufficient funds, dust,
	// incompatible fee basis all look the same).
	ErrInvalidAmountOrFee = errors.New("invalid amount or fee")

	// ErrNoNetworkFees is returned when a fee is requested but the network
	// offers no quotes. Callers must not estimate before fees are known.
	ErrNoNetworkFees = errors.New("network offers no fees")
)
