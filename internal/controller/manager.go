// Package controller is the interface between the application and the wallets
// of every network it runs. It owns one wallet facade per currency and routes
// native events to them.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/setavenger/walletcore/internal/backend"
	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/dispatch"
	"github.com/setavenger/walletcore/internal/logging"
	"github.com/setavenger/walletcore/internal/store"
	"github.com/setavenger/walletcore/internal/wallet"
)

const DefaultFeeUpdateTimeout = 30 * time.Second

type network struct {
	network *backend.Network
	source  backend.FeeSource
	manager *backend.Manager
}

type Manager struct {
	DataDir   string
	DustLimit int64

	State *store.Store
	ui    dispatch.Dispatcher

	walletOpts       []wallet.Option
	feeUpdateTimeout time.Duration

	mu         sync.RWMutex
	networks   map[string]*network
	currencies map[string]core.Currency // native currency uid -> application currency
	wallets    map[string]*wallet.Wallet
	order      []string
	// foreign keeps loaded snapshots of networks that were not added.
	foreign map[string]json.RawMessage
}

type Option func(*Manager)

// WithWalletOptions are applied to every wallet facade the manager creates.
func WithWalletOptions(opts ...wallet.Option) Option {
	return func(m *Manager) { m.walletOpts = append(m.walletOpts, opts...) }
}

func WithDustLimit(sats int64) Option {
	return func(m *Manager) { m.DustLimit = sats }
}

func WithFeeUpdateTimeout(d time.Duration) Option {
	return func(m *Manager) { m.feeUpdateTimeout = d }
}

func NewManager(dataDir string, state *store.Store, ui dispatch.Dispatcher, opts ...Option) *Manager {
	m := &Manager{
		DataDir:          dataDir,
		DustLimit:        backend.DefaultDustLimit,
		State:            state,
		ui:               ui,
		feeUpdateTimeout: DefaultFeeUpdateTimeout,
		networks:         make(map[string]*network),
		currencies:       make(map[string]core.Currency),
		wallets:          make(map[string]*wallet.Wallet),
		foreign:          make(map[string]json.RawMessage),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddNetwork registers a network and returns the native manager for it. The
// controller is the native manager's listener.
func (m *Manager) AddNetwork(
	n *backend.Network,
	source backend.FeeSource,
	broadcaster backend.Broadcaster,
	opts ...backend.ManagerOption,
) (*backend.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.networks[n.Name()]; ok {
		return nil, fmt.Errorf("network %s already added", n.Name())
	}
	opts = append([]backend.ManagerOption{backend.WithDustLimit(m.DustLimit)}, opts...)
	native := backend.NewManager(n, m, broadcaster, opts...)
	m.networks[n.Name()] = &network{network: n, source: source, manager: native}
	m.currencies[n.Currency().UID] = n.Currency()
	return native, nil
}

// NativeManager returns the native manager of a network added earlier.
func (m *Manager) NativeManager(name string) (*backend.Manager, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.networks[name]
	if !ok {
		return nil, false
	}
	return n.manager, true
}

// Connect returns the facade of native's currency, creating it on first use.
// There is never more than one facade per currency.
func (m *Manager) Connect(native core.NativeWallet) (*wallet.Wallet, error) {
	m.mu.Lock()
	currency, ok := m.currencies[native.Currency().UID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("currency %s has no registered network", native.Currency().UID)
	}
	if w, ok := m.wallets[currency.UID]; ok {
		m.mu.Unlock()
		return w, nil
	}
	w := wallet.New(native, currency, m, m.State, m.ui, m.walletOpts...)
	m.wallets[currency.UID] = w
	m.order = append(m.order, currency.UID)
	m.mu.Unlock()

	logging.L.Info().Str("currency", currency.UID).Msg("wallet connected")
	return w, nil
}

func (m *Manager) CurrencyForCore(c core.Currency) (core.Currency, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.currencies[c.UID]
	return cur, ok
}

func (m *Manager) WalletFor(c core.Currency) (*wallet.Wallet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wallets[c.UID]
	return w, ok
}

// Wallets returns every connected facade in connection order.
func (m *Manager) Wallets() []*wallet.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*wallet.Wallet, 0, len(m.order))
	for _, uid := range m.order {
		out = append(out, m.wallets[uid])
	}
	return out
}

// UpdateFees refreshes fees in the background.
func (m *Manager) UpdateFees() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.feeUpdateTimeout)
		defer cancel()
		if err := m.RefreshFees(ctx); err != nil {
			logging.L.Err(err).Msg("failed to update network fees")
		}
	}()
}

// RefreshFees updates every network that has a fee source, concurrently.
func (m *Manager) RefreshFees(ctx context.Context) error {
	m.mu.RLock()
	targets := make([]*network, 0, len(m.networks))
	for _, n := range m.networks {
		if n.source != nil {
			targets = append(targets, n)
		}
	}
	m.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, n := range targets {
		n := n
		g.Go(func() error {
			return n.network.UpdateFees(ctx, n.source)
		})
	}
	return g.Wait()
}

/* native events */

func (m *Manager) facadeOf(native core.NativeWallet) (*wallet.Wallet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	currency, ok := m.currencies[native.Currency().UID]
	if !ok {
		return nil, false
	}
	w, ok := m.wallets[currency.UID]
	return w, ok
}

func (m *Manager) HandleWalletEvent(native core.NativeWallet, event core.WalletEvent) {
	w, ok := m.facadeOf(native)
	if !ok {
		logging.L.Trace().
			Str("currency", native.Currency().UID).
			Str("event", event.Kind.String()).
			Msg("wallet event before facade exists")
		return
	}
	w.HandleWalletEvent(event)
}

func (m *Manager) HandleTransferEvent(native core.NativeWallet, t core.Transfer, event core.TransferEvent) {
	w, ok := m.facadeOf(native)
	if !ok {
		return
	}
	w.HandleTransferEvent(event, t)
}

/* DB preparations */

// Serialise creates byte data of every network's wallet which can then be
// stored in an arbitrary way. Snapshots of networks that were loaded but
// not added are written back unchanged.
func (m *Manager) Serialise() ([]byte, error) {
	m.mu.RLock()
	snapshots := make(map[string]any, len(m.networks)+len(m.foreign))
	for name, raw := range m.foreign {
		snapshots[name] = raw
	}
	for name, n := range m.networks {
		if _, ok := n.manager.Wallet(); !ok {
			continue
		}
		s, err := n.manager.Snapshot()
		if err != nil {
			m.mu.RUnlock()
			return nil, fmt.Errorf("failed to snapshot %s: %w", name, err)
		}
		snapshots[name] = s
	}
	m.mu.RUnlock()

	jsonData, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	return jsonData, nil
}

// DeSerialise restores the wallets of networks added earlier and connects
// them. Snapshots of other networks are kept for Serialise.
func (m *Manager) DeSerialise(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}
	for name, msg := range raw {
		native, ok := m.NativeManager(name)
		if !ok {
			logging.L.Debug().Str("network", name).Msg("keeping wallet of inactive network")
			m.mu.Lock()
			m.foreign[name] = msg
			m.mu.Unlock()
			continue
		}
		var s backend.Snapshot
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("failed to unmarshal %s wallet: %w", name, err)
		}
		nw, err := native.Restore(&s)
		if err != nil {
			return err
		}
		if _, err := m.Connect(nw); err != nil {
			return err
		}
	}
	return nil
}

// HasWallet reports whether the named network holds a wallet.
func (m *Manager) HasWallet(name string) bool {
	native, ok := m.NativeManager(name)
	if !ok {
		return false
	}
	_, ok = native.Wallet()
	return ok
}
