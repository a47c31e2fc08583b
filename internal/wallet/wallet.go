// Package wallet wraps a native wallet handle with a currency aware interface
// for the application: balance, addresses, visible transfers, fee selection,
// transfer creation and submission, and wallet event subscriptions.
package wallet

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/dispatch"
	"github.com/setavenger/walletcore/internal/logging"
	"github.com/setavenger/walletcore/internal/store"
)

// System is the owner of all wallets. A Wallet only borrows it for lookups
// across wallets; the system outlives every wallet it creates.
type System interface {
	// CurrencyForCore maps a native currency to the application currency.
	CurrencyForCore(c core.Currency) (core.Currency, bool)
	WalletFor(c core.Currency) (*Wallet, bool)
	UpdateFees()
}

// AppState is the user facing state the wallet keeps up to date.
type AppState interface {
	Perform(c core.Currency, action store.Action)
	CurrentRate(uid string) *store.Rate
}

type Wallet struct {
	core     core.NativeWallet
	currency core.Currency
	system   System
	state    AppState
	ui       dispatch.Dispatcher
	policy   FeePolicy
	logger   zerolog.Logger

	// compensateSubmit synthesizes TransferSubmitted events from transfer
	// state changes because the native layer does not emit them.
	compensateSubmit bool

	subMu         sync.RWMutex
	subscriberIDs []SubscriberID
	subscriptions map[SubscriberID][]EventCallback
}

type Option func(*Wallet)

func WithFeePolicy(p FeePolicy) Option {
	return func(w *Wallet) { w.policy = p }
}

func WithSubmitCompensation(enabled bool) Option {
	return func(w *Wallet) { w.compensateSubmit = enabled }
}

func WithLogger(l zerolog.Logger) Option {
	return func(w *Wallet) { w.logger = l }
}

// New wraps native. state mutations are run through ui.
func New(
	native core.NativeWallet,
	currency core.Currency,
	system System,
	state AppState,
	ui dispatch.Dispatcher,
	opts ...Option,
) *Wallet {
	w := &Wallet{
		core:             native,
		currency:         currency,
		system:           system,
		state:            state,
		ui:               ui,
		policy:           DefaultFeePolicy(),
		logger:           logging.WithComponent("wallet").With().Str("currency", currency.Code).Logger(),
		compensateSubmit: true,
		subscriptions:    make(map[SubscriberID][]EventCallback),
	}
	for _, opt := range opts {
		opt(w)
	}

	// The native layer does not report a balance when its initial sync ends,
	// so publish whatever it holds right away.
	balance := w.Balance()
	w.ui.Async(func() {
		w.state.Perform(w.currency, store.SetBalance(balance))
	})

	return w
}

// Core returns the wrapped native handle.
func (w *Wallet) Core() core.NativeWallet {
	return w.core
}

func (w *Wallet) Currency() core.Currency {
	return w.currency
}

func (w *Wallet) network() core.Network {
	return w.core.Manager().Network()
}

/* Network */

// NetworkCurrency is the native currency of the wallet's network, if the
// system knows it.
func (w *Wallet) NetworkCurrency() (core.Currency, bool) {
	return w.system.CurrencyForCore(w.network().Currency())
}

// NetworkPrimaryWallet is the wallet of the network's native currency.
func (w *Wallet) NetworkPrimaryWallet() (*Wallet, bool) {
	nc, ok := w.NetworkCurrency()
	if !ok {
		return nil, false
	}
	return w.system.WalletFor(nc)
}

// FeeCurrency is the currency fees are paid in.
func (w *Wallet) FeeCurrency() core.Currency {
	if nc, ok := w.NetworkCurrency(); ok {
		return nc
	}
	return w.currency
}

/* State */

func (w *Wallet) Balance() core.Amount {
	return core.NewAmount(w.core.Balance().Value, w.currency)
}

// Transfers returns the transfers visible to the user, most recent first.
func (w *Wallet) Transfers() []core.Transfer {
	all := w.core.Transfers()
	visible := make([]core.Transfer, 0, len(all))
	for _, t := range all {
		if t.State().IsVisible() {
			visible = append(visible, t)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Timestamp().After(visible[j].Timestamp())
	})
	return visible
}

// Transactions returns the visible transfers priced at the current exchange rate.
func (w *Wallet) Transactions() []Transaction {
	rate := w.state.CurrentRate(w.currency.UID)
	transfers := w.Transfers()
	out := make([]Transaction, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, newTransaction(t, w.currency, rate))
	}
	return out
}

/* Addresses */

// ReceiveAddress is the target to use for incoming transfers.
func (w *Wallet) ReceiveAddress() string {
	return w.core.Target().String()
}

func (w *Wallet) ReceiveAddressForScheme(scheme core.AddressScheme) string {
	return w.core.TargetForScheme(scheme).String()
}

// IsOwnAddress reports whether address is the wallet's default receive
// target. Only meaningful on single-address networks.
func (w *Wallet) IsOwnAddress(address string) bool {
	target, ok := w.network().ParseAddress(address)
	if !ok {
		return false
	}
	return target.String() == w.core.Target().String()
}
