package backend

import (
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
)

// Virtual sizes of a one input spend with change, in vbytes.
const (
	txOverheadVSize   = 11
	p2wpkhInputVSize  = 68
	p2wpkhOutputVSize = 31
	p2pkhOutputVSize  = 34
	p2shOutputVSize   = 32
	p2wshOutputVSize  = 43
	p2trOutputVSize   = 43
)

type Wallet struct {
	manager  *Manager
	currency core.Currency
	mnemonic string
	keys     *walletKeys

	mu        sync.RWMutex
	balance   int64
	transfers []*Transfer
}

func newWallet(m *Manager, mnemonic string) (*Wallet, error) {
	keys, err := deriveWalletKeys(mnemonic, m.network.params)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		manager:  m,
		currency: m.network.currency,
		mnemonic: mnemonic,
		keys:     keys,
	}, nil
}

func (w *Wallet) Manager() core.WalletManager {
	return w.manager
}

func (w *Wallet) Currency() core.Currency {
	return w.currency
}

func (w *Wallet) Balance() core.Amount {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return core.NewAmount(w.balance, w.currency)
}

func (w *Wallet) Target() core.Address {
	return Address{w.keys.segwit}
}

func (w *Wallet) TargetForScheme(scheme core.AddressScheme) core.Address {
	if scheme == core.SchemeLegacy {
		return Address{w.keys.legacy}
	}
	return w.Target()
}

func (w *Wallet) Transfers() []core.Transfer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]core.Transfer, len(w.transfers))
	for i, t := range w.transfers {
		out[i] = t
	}
	return out
}

// Transfer looks up a transfer by hash.
func (w *Wallet) Transfer(hash string) (*Transfer, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, t := range w.transfers {
		if t.hash == hash {
			return t, true
		}
	}
	return nil, false
}

// EstimateFee prices a one input spend to target at fee's rate. The result is
// delivered from a new goroutine.
func (w *Wallet) EstimateFee(target core.Address, amount core.Amount, fee core.NetworkFee, completion func(*core.FeeBasis, error)) {
	go func() {
		basis, err := w.estimate(target, amount, fee)
		if err != nil {
			logging.L.Debug().Err(err).Int64("amount", amount.Value).Msg("fee estimation failed")
			completion(nil, err)
			return
		}
		w.manager.emitWallet(w, core.WalletEvent{Kind: core.FeeBasisEstimated, FeeBasis: basis})
		completion(basis, nil)
	}()
}

func (w *Wallet) estimate(target core.Address, amount core.Amount, fee core.NetworkFee) (*core.FeeBasis, error) {
	if amount.Currency.UID != w.currency.UID {
		return nil, ErrCurrencyMismatch
	}
	basis := &core.FeeBasis{
		Currency:           w.currency,
		PricePerCostFactor: fee.Rate,
		CostFactor:         estimateVSize(target),
	}
	if err := w.checkFunds(amount.Value, basis.Fee().Value); err != nil {
		return nil, err
	}
	return basis, nil
}

func estimateVSize(target core.Address) uint64 {
	out := uint64(p2wpkhOutputVSize)
	if a, ok := target.(Address); ok {
		switch a.Address.(type) {
		case *btcutil.AddressPubKeyHash:
			out = p2pkhOutputVSize
		case *btcutil.AddressScriptHash:
			out = p2shOutputVSize
		case *btcutil.AddressWitnessScriptHash:
			out = p2wshOutputVSize
		case *btcutil.AddressTaproot:
			out = p2trOutputVSize
		}
	}
	return txOverheadVSize + p2wpkhInputVSize + out + p2wpkhOutputVSize
}

func (w *Wallet) checkFunds(amount, fee int64) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if amount+fee > w.balance {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount+fee, w.balance)
	}
	return nil
}

// reserve debits amount when the balance covers it.
func (w *Wallet) reserve(amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if amount > w.balance {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, w.balance)
	}
	w.balance -= amount
	return nil
}

// CreateTransfer records an unsigned outgoing transfer.
func (w *Wallet) CreateTransfer(target core.Address, amount core.Amount, basis core.FeeBasis) (core.Transfer, error) {
	if amount.Currency.UID != w.currency.UID || basis.Currency.UID != w.currency.UID {
		return nil, ErrCurrencyMismatch
	}
	if amount.Value < w.manager.dustLimit {
		return nil, fmt.Errorf("%w: %d < %d", ErrDustAmount, amount.Value, w.manager.dustLimit)
	}
	fee := basis.Fee()
	if err := w.checkFunds(amount.Value, fee.Value); err != nil {
		return nil, err
	}

	t := newTransfer(w, core.DirectionSent, core.TransferStateCreated, amount, fee, target.String(), time.Now())
	w.add(t)
	w.manager.announce(w, t)
	return t, nil
}

// Receive credits the wallet with an incoming payment that is waiting for
// confirmation.
func (w *Wallet) Receive(amount int64) *Transfer {
	t := newTransfer(
		w,
		core.DirectionReceived,
		core.TransferStatePending,
		core.NewAmount(amount, w.currency),
		core.NewAmount(0, w.currency),
		w.Target().String(),
		time.Now(),
	)
	w.add(t)
	balance := w.adjustBalance(amount)

	logging.L.Info().Str("hash", t.hash).Int64("amount", amount).Msg("incoming transfer")
	w.manager.announce(w, t)
	w.manager.emitWallet(w, core.BalanceUpdatedEvent(balance))
	return t
}

func (w *Wallet) add(t *Transfer) {
	w.mu.Lock()
	w.transfers = append(w.transfers, t)
	w.mu.Unlock()
}

func (w *Wallet) adjustBalance(delta int64) core.Amount {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += delta
	return core.NewAmount(w.balance, w.currency)
}

func (w *Wallet) checkPaperKey(paperKey string) error {
	keys, err := deriveWalletKeys(paperKey, w.manager.network.params)
	if err != nil {
		return err
	}
	if keys.accountXpub != w.keys.accountXpub {
		return ErrInvalidPaperKey
	}
	return nil
}
