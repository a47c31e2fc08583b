package core

import "time"

// Address is a parsed, network specific payment target.
type Address interface {
	String() string
}

// AddressScheme selects the address format for a receive target.
type AddressScheme uint8

const (
	SchemeDefault AddressScheme = iota
	SchemeSegwit
	SchemeLegacy
)

func (s AddressScheme) String() string {
	switch s {
	case SchemeSegwit:
		return "segwit"
	case SchemeLegacy:
		return "legacy"
	default:
		return "default"
	}
}

// NetworkFee is a fee quote offered by a network: paying Rate (base units per
// cost factor unit, e.g. sat/vB) should confirm within ConfirmationTime.
type NetworkFee struct {
	ConfirmationTime time.Duration `json:"confirmation_time"`
	Rate             uint64        `json:"rate"`
}

// TimeMillis is the confirmation time in milliseconds.
func (f NetworkFee) TimeMillis() int64 {
	return f.ConfirmationTime.Milliseconds()
}

// Network is the native view of one blockchain network.
type Network interface {
	Name() string
	Currency() Currency
	// Fees returns the currently offered fee quotes in no particular order.
	Fees() []NetworkFee
	// ParseAddress reports false when s is not a valid address on this network.
	ParseAddress(s string) (Address, bool)
}

// FeeBasis is the outcome of a fee estimation round trip and is required to
// create a transfer.
type FeeBasis struct {
	Currency           Currency `json:"currency"`
	PricePerCostFactor uint64   `json:"price_per_cost_factor"`
	CostFactor         uint64   `json:"cost_factor"`
}

// Fee is the total fee the basis implies.
func (b FeeBasis) Fee() Amount {
	return NewAmount(int64(b.PricePerCostFactor*b.CostFactor), b.Currency)
}
