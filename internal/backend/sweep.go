package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
)

const (
	p2pkhInputVSize      = 148
	defaultLookupTimeout = 30 * time.Second
)

// SweepSource reports the funds held by an address the wallet does not own.
type SweepSource interface {
	Funds(ctx context.Context, address string) (int64, error)
	// Spent is called once the funds of address were swept.
	Spent(address string)
}

// ExternalFunds is an in-memory SweepSource.
type ExternalFunds struct {
	mu        sync.RWMutex
	byAddress map[string]int64
}

func NewExternalFunds() *ExternalFunds {
	return &ExternalFunds{byAddress: make(map[string]int64)}
}

// Deposit adds sats to the funds held by address.
func (f *ExternalFunds) Deposit(address string, sats int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byAddress[address] += sats
}

func (f *ExternalFunds) Funds(_ context.Context, address string) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.byAddress[address], nil
}

func (f *ExternalFunds) Spent(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byAddress, address)
}

// ElectrumFunds looks up the funds of an address on an electrum server.
type ElectrumFunds struct {
	// URL is ssl://host:port or tcp://host:port.
	URL    string
	Params *chaincfg.Params
}

func (e *ElectrumFunds) Funds(ctx context.Context, address string) (int64, error) {
	hash, err := scriptHash(address, e.Params)
	if err != nil {
		return 0, err
	}
	client, err := dialElectrum(ctx, e.URL)
	if err != nil {
		return 0, err
	}
	defer client.Shutdown()

	balance, err := client.GetBalance(ctx, hash)
	if err != nil {
		return 0, fmt.Errorf("get_balance %s: %w", address, err)
	}
	return int64(balance.Confirmed + balance.Unconfirmed), nil
}

// Spent is a no-op, the server sees the sweep once it is mined.
func (e *ElectrumFunds) Spent(string) {}

// scriptHash is the electrum protocol's key for an address: the reversed
// sha256 of its output script, hex encoded.
func scriptHash(address string, params *chaincfg.Params) (string, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return "", err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(script)
	slices.Reverse(sum[:])
	return hex.EncodeToString(sum[:]), nil
}

// Sweeper moves everything held by one imported key into its wallet.
type Sweeper struct {
	wallet  *Wallet
	address btcutil.Address
	balance int64
}

// CreateSweeper decodes a WIF private key and looks up its funds. The result
// is delivered from a new goroutine.
func (w *Wallet) CreateSweeper(key string, completion func(core.Sweeper, error)) {
	go func() {
		s, err := w.newSweeper(key)
		if err != nil {
			logging.L.Warn().Err(err).Msg("failed to create sweeper")
			completion(nil, err)
			return
		}
		completion(s, nil)
	}()
}

func (w *Wallet) newSweeper(key string) (*Sweeper, error) {
	params := w.manager.network.params
	wif, err := btcutil.DecodeWIF(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !wif.IsForNet(params) {
		return nil, fmt.Errorf("%w: key is not for %s", ErrInvalidKey, w.manager.network.name)
	}

	hash := btcutil.Hash160(wif.SerializePubKey())
	var candidates []btcutil.Address
	if wif.CompressPubKey {
		segwit, err := btcutil.NewAddressWitnessPubKeyHash(hash, params)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, segwit)
	}
	legacy, err := btcutil.NewAddressPubKeyHash(hash, params)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, legacy)

	ctx, cancel := context.WithTimeout(context.Background(), defaultLookupTimeout)
	defer cancel()
	for _, addr := range candidates {
		sats, err := w.manager.sweepSource.Funds(ctx, addr.EncodeAddress())
		if err != nil {
			return nil, fmt.Errorf("failed to look up funds of %s: %w", addr.EncodeAddress(), err)
		}
		if sats > 0 {
			logging.L.Info().Str("address", addr.EncodeAddress()).Int64("balance", sats).Msg("found funds to sweep")
			return &Sweeper{wallet: w, address: addr, balance: sats}, nil
		}
	}
	return nil, ErrNoSweepFunds
}

// Address is where the swept funds are held.
func (s *Sweeper) Address() core.Address {
	return Address{s.address}
}

func (s *Sweeper) Balance() core.Amount {
	return core.NewAmount(s.balance, s.wallet.currency)
}

// EstimateFee prices spending the key's funds to the wallet at fee's rate.
func (s *Sweeper) EstimateFee(fee core.NetworkFee, completion func(*core.FeeBasis, error)) {
	go func() {
		basis := &core.FeeBasis{
			Currency:           s.wallet.currency,
			PricePerCostFactor: fee.Rate,
			CostFactor:         s.vsize(),
		}
		if basis.Fee().Value >= s.balance {
			completion(nil, fmt.Errorf("%w: fee %d exceeds %d", ErrInsufficientFunds, basis.Fee().Value, s.balance))
			return
		}
		s.wallet.manager.emitWallet(s.wallet, core.WalletEvent{Kind: core.FeeBasisEstimated, FeeBasis: basis})
		completion(basis, nil)
	}()
}

func (s *Sweeper) vsize() uint64 {
	in := uint64(p2wpkhInputVSize)
	if _, ok := s.address.(*btcutil.AddressPubKeyHash); ok {
		in = p2pkhInputVSize
	}
	return txOverheadVSize + in + p2wpkhOutputVSize
}

// CreateTransfer records a recovered transfer of the key's funds less the fee.
func (s *Sweeper) CreateTransfer(basis core.FeeBasis) (core.Transfer, error) {
	w := s.wallet
	if basis.Currency.UID != w.currency.UID {
		return nil, ErrCurrencyMismatch
	}
	fee := basis.Fee()
	amount := s.balance - fee.Value
	if amount < w.manager.dustLimit {
		return nil, fmt.Errorf("%w: %d left after fee", ErrDustAmount, amount)
	}

	t := newTransfer(w, core.DirectionRecovered, core.TransferStateCreated, core.NewAmount(amount, w.currency), fee, w.Target().String(), time.Now())
	t.source = s.address.EncodeAddress()
	w.add(t)
	w.manager.announce(w, t)
	return t, nil
}
