package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
)

const (
	DefaultDustLimit        = 546
	DefaultBroadcastTimeout = 15 * time.Second
)

// Broadcaster hands a signed transfer to the network.
type Broadcaster interface {
	Broadcast(ctx context.Context, t *Transfer) error
}

type BroadcasterFunc func(ctx context.Context, t *Transfer) error

func (f BroadcasterFunc) Broadcast(ctx context.Context, t *Transfer) error {
	return f(ctx, t)
}

// Loopback accepts every transfer without contacting any network.
var Loopback = BroadcasterFunc(func(context.Context, *Transfer) error { return nil })

// Manager owns the wallet of one network and reports every change to its
// listener, from whatever goroutine made the change.
type Manager struct {
	network          *Network
	listener         core.Listener
	broadcaster      Broadcaster
	dustLimit        int64
	broadcastTimeout time.Duration
	sweepSource      SweepSource

	mu     sync.RWMutex
	wallet *Wallet
}

type ManagerOption func(*Manager)

func WithDustLimit(sats int64) ManagerOption {
	return func(m *Manager) { m.dustLimit = sats }
}

func WithBroadcastTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.broadcastTimeout = d }
}

// WithSweepSource sets where the funds of imported keys are looked up.
func WithSweepSource(src SweepSource) ManagerOption {
	return func(m *Manager) { m.sweepSource = src }
}

// NewManager creates a manager without a wallet. A nil broadcaster means
// Loopback.
func NewManager(network *Network, listener core.Listener, broadcaster Broadcaster, opts ...ManagerOption) *Manager {
	if broadcaster == nil {
		broadcaster = Loopback
	}
	m := &Manager{
		network:          network,
		listener:         listener,
		broadcaster:      broadcaster,
		dustLimit:        DefaultDustLimit,
		broadcastTimeout: DefaultBroadcastTimeout,
		sweepSource:      NewExternalFunds(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Network() core.Network {
	return m.network
}

// Wallet returns the manager's wallet once one was created or restored.
func (m *Manager) Wallet() (*Wallet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wallet, m.wallet != nil
}

// CreateWallet sets up the manager's wallet from a BIP39 mnemonic.
func (m *Manager) CreateWallet(mnemonic string) (*Wallet, error) {
	w, err := newWallet(m, mnemonic)
	if err != nil {
		return nil, err
	}
	if err := m.install(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (m *Manager) install(w *Wallet) error {
	m.mu.Lock()
	if m.wallet != nil {
		m.mu.Unlock()
		return ErrWalletExists
	}
	m.wallet = w
	m.mu.Unlock()

	logging.L.Info().
		Str("network", m.network.name).
		Str("address", w.Target().String()).
		Msg("wallet created")
	m.emitWallet(w, core.WalletEvent{Kind: core.WalletCreated})
	return nil
}

// Submit signs and broadcasts t in the background. Every state change is
// reported as a transfer event.
func (m *Manager) Submit(t core.Transfer, paperKey string) {
	bt, ok := t.(*Transfer)
	if !ok || bt.wallet == nil || bt.wallet.manager != m {
		logging.L.Error().Str("hash", t.Hash()).Msg("submit of transfer from another manager")
		return
	}
	go m.submit(bt, paperKey)
}

func (m *Manager) submit(t *Transfer, paperKey string) {
	w := t.wallet
	if err := w.checkPaperKey(paperKey); err != nil {
		logging.L.Err(err).Str("hash", t.hash).Msg("failed to sign transfer")
		m.transition(w, t, core.TransferStateCreated, core.TransferStateFailed)
		return
	}

	// Outgoing funds are reserved before broadcast and refunded on failure.
	var debit int64
	if t.direction == core.DirectionSent {
		debit = t.amount.Value + t.fee.Value
		if err := w.reserve(debit); err != nil {
			logging.L.Err(err).Str("hash", t.hash).Msg("failed to sign transfer")
			m.transition(w, t, core.TransferStateCreated, core.TransferStateFailed)
			return
		}
	}
	if !m.transition(w, t, core.TransferStateCreated, core.TransferStateSigned) {
		w.adjustBalance(debit)
		logging.L.Warn().Str("hash", t.hash).Str("state", t.State().String()).Msg("transfer is not awaiting submission")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.broadcastTimeout)
	err := m.broadcaster.Broadcast(ctx, t)
	cancel()
	if err != nil {
		logging.L.Err(err).Str("hash", t.hash).Msg("failed to broadcast transfer")
		w.adjustBalance(debit)
		m.transition(w, t, core.TransferStateSigned, core.TransferStateFailed)
		return
	}

	logging.L.Info().
		Str("hash", t.hash).
		Str("direction", t.direction.String()).
		Int64("amount", t.amount.Value).
		Int64("fee", t.fee.Value).
		Msg("transfer broadcast")
	m.transition(w, t, core.TransferStateSigned, core.TransferStateSubmitted)

	balance := w.Balance()
	if t.direction == core.DirectionRecovered {
		balance = w.adjustBalance(t.amount.Value)
		m.sweepSource.Spent(t.source)
	}
	m.emitWallet(w, core.BalanceUpdatedEvent(balance))
}

// Confirm marks a submitted or pending transfer as included in a block.
func (m *Manager) Confirm(hash string) error {
	w, ok := m.Wallet()
	if !ok {
		return ErrNoWallet
	}
	t, ok := w.Transfer(hash)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransfer, hash)
	}
	if m.transition(w, t, core.TransferStateSubmitted, core.TransferStateIncluded) ||
		m.transition(w, t, core.TransferStatePending, core.TransferStateIncluded) {
		return nil
	}
	return fmt.Errorf("transfer %s cannot be confirmed in state %s", hash, t.State())
}

func (m *Manager) transition(w *Wallet, t *Transfer, from, next core.TransferState) bool {
	if !t.compareAndSetState(from, next) {
		return false
	}
	if m.listener != nil {
		m.listener.HandleTransferEvent(w, t, core.TransferEvent{
			Kind: core.TransferEventChanged,
			Old:  from,
			New:  next,
		})
	}
	m.emitWallet(w, core.TransferEventOf(core.TransferChanged, t))
	return true
}

// announce reports a newly tracked transfer.
func (m *Manager) announce(w *Wallet, t *Transfer) {
	if m.listener != nil {
		m.listener.HandleTransferEvent(w, t, core.TransferEvent{
			Kind: core.TransferEventCreated,
			New:  t.State(),
		})
	}
	m.emitWallet(w, core.TransferEventOf(core.TransferAdded, t))
}

func (m *Manager) emitWallet(w *Wallet, event core.WalletEvent) {
	if m.listener == nil {
		return
	}
	m.listener.HandleWalletEvent(w, event)
}
