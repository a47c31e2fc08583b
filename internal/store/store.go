// Package store keeps the per-currency application state shown to the user.
// Mutations are expected to arrive through the dispatch queue; reads may
// happen from any goroutine.
package store

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/setavenger/walletcore/internal/core"
)

type SyncState uint8

const (
	SyncConnecting SyncState = iota
	SyncSyncing
	SyncSuccess
	SyncFailed
)

func (s SyncState) String() string {
	switch s {
	case SyncConnecting:
		return "connecting"
	case SyncSyncing:
		return "syncing"
	case SyncSuccess:
		return "success"
	case SyncFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Rate is the price of one whole unit of a currency in a fiat currency.
type Rate struct {
	Code  string          `json:"code"`
	Value decimal.Decimal `json:"value"`
}

type WalletState struct {
	Currency  core.Currency
	Balance   core.Amount
	SyncState SyncState
	Rate      *Rate
}

// Action mutates one wallet's state.
type Action func(*WalletState)

func SetBalance(balance core.Amount) Action {
	return func(s *WalletState) { s.Balance = balance }
}

func SetSyncState(state SyncState) Action {
	return func(s *WalletState) { s.SyncState = state }
}

func SetRate(rate Rate) Action {
	return func(s *WalletState) { s.Rate = &rate }
}

type Store struct {
	mu          sync.RWMutex
	wallets     map[string]*WalletState
	subscribers []func(WalletState)
}

func New() *Store {
	return &Store{wallets: make(map[string]*WalletState)}
}

// Perform applies action to the state of currency c and notifies subscribers.
func (s *Store) Perform(c core.Currency, action Action) {
	s.mu.Lock()
	ws, ok := s.wallets[c.UID]
	if !ok {
		ws = &WalletState{Currency: c, Balance: core.NewAmount(0, c)}
		s.wallets[c.UID] = ws
	}
	action(ws)
	snapshot := *ws
	subs := make([]func(WalletState), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// State returns a copy of the state for the currency uid.
func (s *Store) State(uid string) (WalletState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.wallets[uid]
	if !ok {
		return WalletState{}, false
	}
	return *ws, true
}

// CurrentRate returns the exchange rate for the currency uid, if known.
func (s *Store) CurrentRate(uid string) *Rate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.wallets[uid]
	if !ok || ws.Rate == nil {
		return nil
	}
	r := *ws.Rate
	return &r
}

// Subscribe registers fn to be called after every Perform.
func (s *Store) Subscribe(fn func(WalletState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}
