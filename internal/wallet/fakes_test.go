package wallet

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/dispatch"
	"github.com/setavenger/walletcore/internal/store"
)

var (
	btc = core.Currency{UID: "bitcoin-mainnet:__native__", Code: "BTC", Name: "Bitcoin", Decimals: 8}
	usd = core.Currency{UID: "bitcoin-mainnet:usdt", Code: "USDT", Name: "Tether", Decimals: 6}

	errRefused = errors.New("refused")
)

type fakeAddress string

func (a fakeAddress) String() string { return string(a) }

type fakeNetwork struct {
	currency core.Currency
	fees     []core.NetworkFee
}

func (n *fakeNetwork) Name() string            { return "fakenet" }
func (n *fakeNetwork) Currency() core.Currency { return n.currency }
func (n *fakeNetwork) Fees() []core.NetworkFee { return n.fees }
func (n *fakeNetwork) ParseAddress(s string) (core.Address, bool) {
	if !strings.HasPrefix(s, "addr-") {
		return nil, false
	}
	return fakeAddress(s), true
}

type fakeTransfer struct {
	hash      string
	state     core.TransferState
	direction core.TransferDirection
	ts        time.Time
	amount    core.Amount
	fee       core.Amount
	target    string
}

func (t *fakeTransfer) Hash() string                      { return t.hash }
func (t *fakeTransfer) State() core.TransferState         { return t.state }
func (t *fakeTransfer) Direction() core.TransferDirection { return t.direction }
func (t *fakeTransfer) Timestamp() time.Time              { return t.ts }
func (t *fakeTransfer) Amount() core.Amount               { return t.amount }
func (t *fakeTransfer) Fee() core.Amount                  { return t.fee }
func (t *fakeTransfer) Target() string                    { return t.target }

type fakeManager struct {
	network   *fakeNetwork
	mu        sync.Mutex
	submitted []core.Transfer
	keys      []string
}

func (m *fakeManager) Network() core.Network { return m.network }
func (m *fakeManager) Submit(t core.Transfer, paperKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, t)
	m.keys = append(m.keys, paperKey)
}

type fakeNative struct {
	manager   *fakeManager
	currency  core.Currency
	balance   core.Amount
	transfers []core.Transfer

	// estimation behaviour
	estimateErr   error
	estimateTwice bool
	estimateCalls int
	estimatedFee  core.NetworkFee

	createErr   error
	createCalls int

	sweeper    core.Sweeper
	sweepErr   error
	sweepTwice bool
}

func newFakeNative(fees ...core.NetworkFee) *fakeNative {
	return &fakeNative{
		manager:  &fakeManager{network: &fakeNetwork{currency: btc, fees: fees}},
		currency: btc,
		balance:  core.NewAmount(100_000, btc),
	}
}

func (f *fakeNative) Manager() core.WalletManager { return f.manager }
func (f *fakeNative) Currency() core.Currency     { return f.currency }
func (f *fakeNative) Balance() core.Amount        { return f.balance }
func (f *fakeNative) Target() core.Address        { return fakeAddress("addr-own-segwit") }
func (f *fakeNative) TargetForScheme(s core.AddressScheme) core.Address {
	if s == core.SchemeLegacy {
		return fakeAddress("addr-own-legacy")
	}
	return f.Target()
}
func (f *fakeNative) Transfers() []core.Transfer { return f.transfers }

func (f *fakeNative) EstimateFee(_ core.Address, _ core.Amount, fee core.NetworkFee, completion func(*core.FeeBasis, error)) {
	f.estimateCalls++
	f.estimatedFee = fee
	basis := &core.FeeBasis{Currency: f.currency, PricePerCostFactor: fee.Rate, CostFactor: 141}
	err := f.estimateErr
	go func() {
		if err != nil {
			completion(nil, err)
		} else {
			completion(basis, nil)
		}
		if f.estimateTwice {
			completion(basis, nil)
		}
	}()
}

func (f *fakeNative) CreateSweeper(_ string, completion func(core.Sweeper, error)) {
	s, err := f.sweeper, f.sweepErr
	go func() {
		completion(s, err)
		if f.sweepTwice {
			completion(s, err)
		}
	}()
}

func (f *fakeNative) CreateTransfer(target core.Address, amount core.Amount, basis core.FeeBasis) (core.Transfer, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &fakeTransfer{
		state:     core.TransferStateCreated,
		direction: core.DirectionSent,
		ts:        time.Now(),
		amount:    amount,
		fee:       basis.Fee(),
		target:    target.String(),
	}, nil
}

type fakeRequest struct {
	target core.Address
	err    error
}

func (r *fakeRequest) PrimaryTarget() core.Address { return r.target }
func (r *fakeRequest) CreateTransfer(basis core.FeeBasis) (core.Transfer, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &fakeTransfer{state: core.TransferStateCreated, target: r.target.String(), fee: basis.Fee()}, nil
}

type fakeSweeper struct {
	balance core.Amount
	err     error
}

func (s *fakeSweeper) Address() core.Address { return fakeAddress("addr-imported") }
func (s *fakeSweeper) Balance() core.Amount  { return s.balance }
func (s *fakeSweeper) EstimateFee(fee core.NetworkFee, completion func(*core.FeeBasis, error)) {
	completion(&core.FeeBasis{Currency: btc, PricePerCostFactor: fee.Rate, CostFactor: 110}, nil)
}
func (s *fakeSweeper) CreateTransfer(basis core.FeeBasis) (core.Transfer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &fakeTransfer{
		state:     core.TransferStateCreated,
		direction: core.DirectionRecovered,
		amount:    core.NewAmount(s.balance.Value-basis.Fee().Value, btc),
		fee:       basis.Fee(),
		target:    "addr-own-segwit",
	}, nil
}

type fakeSystem struct {
	currencies map[string]core.Currency
	wallets    map[string]*Wallet
	feeUpdates int
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		currencies: map[string]core.Currency{btc.UID: btc},
		wallets:    make(map[string]*Wallet),
	}
}

func (s *fakeSystem) CurrencyForCore(c core.Currency) (core.Currency, bool) {
	cur, ok := s.currencies[c.UID]
	return cur, ok
}

func (s *fakeSystem) WalletFor(c core.Currency) (*Wallet, bool) {
	w, ok := s.wallets[c.UID]
	return w, ok
}

func (s *fakeSystem) UpdateFees() { s.feeUpdates++ }

// recordingState classifies every action by applying it to a sentinel state.
type recordingState struct {
	mu    sync.Mutex
	log   *[]string
	rate  *store.Rate
	last  core.Amount
	count map[string]int
}

func newRecordingState(log *[]string) *recordingState {
	return &recordingState{log: log, count: make(map[string]int)}
}

func (r *recordingState) Perform(_ core.Currency, action store.Action) {
	scratch := store.WalletState{Balance: core.Amount{Value: -1}, SyncState: store.SyncState(255)}
	action(&scratch)

	r.mu.Lock()
	defer r.mu.Unlock()
	if scratch.Balance.Value != -1 {
		r.count["balance"]++
		r.last = scratch.Balance
		*r.log = append(*r.log, "balance")
	}
	if scratch.SyncState == store.SyncSuccess {
		r.count["sync_success"]++
		*r.log = append(*r.log, "sync_success")
	}
}

func (r *recordingState) CurrentRate(string) *store.Rate { return r.rate }

func (r *recordingState) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = (*r.log)[:0]
	r.count = make(map[string]int)
}

type testEnv struct {
	wallet *Wallet
	native *fakeNative
	system *fakeSystem
	state  *recordingState
	log    []string
}

func newTestEnv(t *testing.T, native *fakeNative, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{native: native, system: newFakeSystem()}
	env.state = newRecordingState(&env.log)
	env.wallet = New(native, btc, env.system, env.state, dispatch.Inline{}, opts...)
	env.system.wallets[btc.UID] = env.wallet
	env.state.reset()
	return env
}

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

func usdRate(v int64) *store.Rate {
	return &store.Rate{Code: "USD", Value: decimal.NewFromInt(v)}
}
