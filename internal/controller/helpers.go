package controller

import (
	"fmt"

	"github.com/setavenger/walletcore/internal/backend"
	"github.com/setavenger/walletcore/internal/wallet"
)

/* Helpers to avoid chaining to deep into sub structs */

// PrimaryWallet is the first connected wallet.
func (m *Manager) PrimaryWallet() (*wallet.Wallet, bool) {
	wallets := m.Wallets()
	if len(wallets) == 0 {
		return nil, false
	}
	return wallets[0], true
}

func (m *Manager) Network(name string) (*backend.Network, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.networks[name]
	if !ok {
		return nil, false
	}
	return n.network, true
}

// CreateWallet sets up the native wallet of a network from a mnemonic and
// connects its facade.
func (m *Manager) CreateWallet(networkName, mnemonic string) (*wallet.Wallet, error) {
	native, ok := m.NativeManager(networkName)
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", networkName)
	}
	nw, err := native.CreateWallet(mnemonic)
	if err != nil {
		return nil, err
	}
	return m.Connect(nw)
}

// nativeWallet is the backend wallet behind a facade.
func nativeWallet(w *wallet.Wallet) (*backend.Wallet, error) {
	nw, ok := w.Core().(*backend.Wallet)
	if !ok {
		return nil, fmt.Errorf("wallet %s is not backed by a local wallet", w.Currency().UID)
	}
	return nw, nil
}
