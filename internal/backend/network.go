// Package backend is an in-process bitcoin flavoured implementation of the
// native wallet interfaces. It keeps balances and transfers in memory, derives
// real receive addresses from a BIP39 seed and takes fee quotes from a static
// table or an electrum server. It does not build or sign real transactions.
package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkSignet  = "signet"
	NetworkRegtest = "regtest"
)

// ParamsForNetwork returns the chain parameters of a network name.
func ParamsForNetwork(name string) (*chaincfg.Params, error) {
	switch name {
	case NetworkMainnet, "":
		return &chaincfg.MainNetParams, nil
	case NetworkTestnet:
		return &chaincfg.TestNet3Params, nil
	case NetworkSignet:
		return &chaincfg.SigNetParams, nil
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network: %s", name)
	}
}

// BitcoinCurrency is the native currency of a bitcoin network.
func BitcoinCurrency(network string) core.Currency {
	if network == "" {
		network = NetworkMainnet
	}
	return core.Currency{
		UID:      fmt.Sprintf("bitcoin-%s:__native__", network),
		Code:     "BTC",
		Name:     "Bitcoin",
		Decimals: 8,
	}
}

// Address is a btcutil address on a specific network.
type Address struct {
	btcutil.Address
}

type Network struct {
	name     string
	currency core.Currency
	params   *chaincfg.Params

	mu   sync.RWMutex
	fees []core.NetworkFee
}

func NewNetwork(name string, currency core.Currency, params *chaincfg.Params, fees []core.NetworkFee) *Network {
	n := &Network{name: name, currency: currency, params: params}
	n.SetFees(fees)
	return n
}

// NewBitcoinNetwork sets up a bitcoin network by name without any fees.
func NewBitcoinNetwork(name string) (*Network, error) {
	params, err := ParamsForNetwork(name)
	if err != nil {
		return nil, err
	}
	return NewNetwork(name, BitcoinCurrency(name), params, nil), nil
}

func (n *Network) Name() string {
	return n.name
}

func (n *Network) Currency() core.Currency {
	return n.currency
}

func (n *Network) Params() *chaincfg.Params {
	return n.params
}

// Fees returns a copy of the current fee quotes.
func (n *Network) Fees() []core.NetworkFee {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]core.NetworkFee, len(n.fees))
	copy(out, n.fees)
	return out
}

func (n *Network) SetFees(fees []core.NetworkFee) {
	cp := make([]core.NetworkFee, len(fees))
	copy(cp, fees)

	n.mu.Lock()
	n.fees = cp
	n.mu.Unlock()
}

// UpdateFees replaces the fee quotes with what src currently offers. The
// existing quotes are kept when src fails or returns nothing.
func (n *Network) UpdateFees(ctx context.Context, src FeeSource) error {
	fees, err := src.Fees(ctx)
	if err != nil {
		return fmt.Errorf("failed to update fees for %s: %w", n.name, err)
	}
	if len(fees) == 0 {
		logging.L.Warn().Str("network", n.name).Msg("fee source returned no quotes, keeping previous")
		return nil
	}
	n.SetFees(fees)
	logging.L.Debug().Str("network", n.name).Int("quotes", len(fees)).Msg("network fees updated")
	return nil
}

func (n *Network) ParseAddress(s string) (core.Address, bool) {
	addr, err := btcutil.DecodeAddress(s, n.params)
	if err != nil {
		return nil, false
	}
	if !addr.IsForNet(n.params) {
		return nil, false
	}
	return Address{addr}, true
}
