package backend

import (
	"fmt"
	"time"

	"github.com/setavenger/walletcore/internal/core"
)

// Snapshot is the persistable state of a manager's wallet.
type Snapshot struct {
	Network   string           `json:"network"`
	Mnemonic  string           `json:"mnemonic"`
	Balance   int64            `json:"balance"`
	Transfers []TransferRecord `json:"transfers"`
}

type TransferRecord struct {
	Hash      string                 `json:"hash"`
	Direction core.TransferDirection `json:"direction"`
	State     core.TransferState     `json:"state"`
	Timestamp time.Time              `json:"timestamp"`
	Amount    int64                  `json:"amount"`
	Fee       int64                  `json:"fee"`
	Target    string                 `json:"target"`
}

// Snapshot captures the wallet. Transfers that were never submitted are left
// out.
func (m *Manager) Snapshot() (*Snapshot, error) {
	w, ok := m.Wallet()
	if !ok {
		return nil, ErrNoWallet
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	s := &Snapshot{
		Network:   m.network.name,
		Mnemonic:  w.mnemonic,
		Balance:   w.balance,
		Transfers: make([]TransferRecord, 0, len(w.transfers)),
	}
	for _, t := range w.transfers {
		state := t.State()
		if state == core.TransferStateCreated || state == core.TransferStateSigned {
			continue
		}
		s.Transfers = append(s.Transfers, TransferRecord{
			Hash:      t.hash,
			Direction: t.direction,
			State:     state,
			Timestamp: t.timestamp,
			Amount:    t.amount.Value,
			Fee:       t.fee.Value,
			Target:    t.target,
		})
	}
	return s, nil
}

// Restore installs the wallet captured in s.
func (m *Manager) Restore(s *Snapshot) (*Wallet, error) {
	if s.Network != m.network.name {
		return nil, fmt.Errorf("snapshot is for network %s, not %s", s.Network, m.network.name)
	}
	w, err := newWallet(m, s.Mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to restore wallet: %w", err)
	}
	w.balance = s.Balance
	for _, r := range s.Transfers {
		w.transfers = append(w.transfers, &Transfer{
			wallet:    w,
			hash:      r.Hash,
			direction: r.Direction,
			timestamp: r.Timestamp,
			amount:    core.NewAmount(r.Amount, w.currency),
			fee:       core.NewAmount(r.Fee, w.currency),
			target:    r.Target,
			state:     r.State,
		})
	}
	if err := m.install(w); err != nil {
		return nil, err
	}
	return w, nil
}
