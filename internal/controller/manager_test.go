package controller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"

	"github.com/setavenger/walletcore/internal/backend"
	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/dispatch"
	"github.com/setavenger/walletcore/internal/store"
	"github.com/setavenger/walletcore/internal/wallet"
)

const (
	testMnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	otherMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"
	destSegwit    = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	// Uncompressed mainnet private key.
	testWIF = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
)

type failingSource struct{}

func (failingSource) Fees(context.Context) ([]core.NetworkFee, error) {
	return nil, errors.New("unreachable")
}

type fixture struct {
	manager *Manager
	queue   *dispatch.Queue
	native  *backend.Manager
	network *backend.Network
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	queue := dispatch.NewQueue()
	t.Cleanup(queue.Close)

	m := NewManager(t.TempDir(), store.New(), queue, opts...)
	network, err := backend.NewBitcoinNetwork(backend.NetworkMainnet)
	if err != nil {
		t.Fatal(err)
	}
	native, err := m.AddNetwork(network, backend.DefaultStaticFees(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RefreshFees(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &fixture{manager: m, queue: queue, native: native, network: network}
}

func (f *fixture) fundedWallet(t *testing.T, sats int64) *wallet.Wallet {
	t.Helper()
	w, err := f.manager.CreateWallet(backend.NetworkMainnet, testMnemonic)
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	nw, err := nativeWallet(w)
	if err != nil {
		t.Fatal(err)
	}
	nw.Receive(sats)
	f.queue.Flush()
	return w
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAddNetworkTwice(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.AddNetwork(f.network, nil, nil); err == nil {
		t.Fatal("expected error adding a network twice")
	}
}

func TestConnectIsUniquePerCurrency(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 0)

	nw, _ := f.native.Wallet()
	again, err := f.manager.Connect(nw)
	if err != nil {
		t.Fatal(err)
	}
	if again != w {
		t.Fatal("second Connect created another facade")
	}
	if got := len(f.manager.Wallets()); got != 1 {
		t.Errorf("wallets = %d, want 1", got)
	}

	found, ok := f.manager.WalletFor(f.network.Currency())
	if !ok || found != w {
		t.Error("WalletFor did not return the connected facade")
	}
	primary, ok := w.NetworkPrimaryWallet()
	if !ok || primary != w {
		t.Error("bitcoin wallet should be its own primary wallet")
	}
}

func TestCurrencyForCoreUnknown(t *testing.T) {
	f := newFixture(t)
	if _, ok := f.manager.CurrencyForCore(core.Currency{UID: "ethereum-mainnet:__native__"}); ok {
		t.Fatal("unknown currency resolved")
	}
	if _, ok := f.manager.CurrencyForCore(f.network.Currency()); !ok {
		t.Fatal("registered currency not resolved")
	}
}

func TestInitialBalanceReachesStore(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 25_000)

	eventually(t, func() bool {
		s, ok := f.manager.State.State(w.Currency().UID)
		return ok && s.Balance.Value == 25_000 && s.SyncState == store.SyncSuccess
	})
}

func TestSend(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 100_000)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var submitted []core.WalletEvent
	w.Subscribe("test", func(e core.WalletEvent) {
		if e.Kind == core.TransferSubmitted {
			submitted = append(submitted, e)
		}
	})

	amount := core.NewAmount(20_000, w.Currency())
	tr, err := f.manager.Send(ctx, w, destSegwit, amount, wallet.Regular, testMnemonic)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tr.State() != core.TransferStateSubmitted {
		t.Errorf("state = %s", tr.State())
	}
	// Regular targets 30 minutes: 10 sat/vB on the default table.
	if tr.Fee().Value != 10*141 {
		t.Errorf("fee = %d, want %d", tr.Fee().Value, 10*141)
	}
	if len(submitted) != 1 || !submitted[0].Success {
		t.Errorf("submitted events = %+v", submitted)
	}

	want := int64(100_000 - 20_000 - 1_410)
	eventually(t, func() bool {
		f.queue.Flush()
		s, _ := f.manager.State.State(w.Currency().UID)
		return s.Balance.Value == want
	})

	history := f.manager.TransactionHistory(w)
	if len(history) != 2 {
		t.Fatalf("history has %d items", len(history))
	}
	if history[0].Hash != tr.Hash() || history[0].NetAmount.Value != -21_410 {
		t.Errorf("latest item = %+v", history[0])
	}
}

func TestSendWithoutSubmitCompensation(t *testing.T) {
	f := newFixture(t, WithWalletOptions(wallet.WithSubmitCompensation(false)))
	w := f.fundedWallet(t, 100_000)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var submitted int
	w.Subscribe("test", func(e core.WalletEvent) {
		if e.Kind == core.TransferSubmitted {
			submitted++
		}
	})

	tr, err := f.manager.Send(ctx, w, destSegwit, core.NewAmount(20_000, w.Currency()), wallet.Regular, testMnemonic)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tr.State() != core.TransferStateSubmitted {
		t.Errorf("state = %s", tr.State())
	}
	if submitted != 0 {
		t.Errorf("got %d transfer_submitted events with compensation off", submitted)
	}

	_, err = f.manager.Send(ctx, w, destSegwit, core.NewAmount(20_000, w.Currency()), wallet.Regular, otherMnemonic)
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("expected ErrSubmitFailed, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	queue := dispatch.NewQueue()
	t.Cleanup(queue.Close)
	m := NewManager(t.TempDir(), store.New(), queue)
	network, err := backend.NewBitcoinNetwork(backend.NetworkMainnet)
	if err != nil {
		t.Fatal(err)
	}
	funds := backend.NewExternalFunds()
	if _, err := m.AddNetwork(network, backend.DefaultStaticFees(), nil, backend.WithSweepSource(funds)); err != nil {
		t.Fatal(err)
	}
	if err := m.RefreshFees(context.Background()); err != nil {
		t.Fatal(err)
	}
	w, err := m.CreateWallet(backend.NetworkMainnet, testMnemonic)
	if err != nil {
		t.Fatal(err)
	}

	wif, err := btcutil.DecodeWIF(testWIF)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(wif.SerializePubKey()), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatal(err)
	}
	funds.Deposit(addr.EncodeAddress(), 100_000)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tr, err := m.Sweep(ctx, w, testWIF, wallet.Regular, testMnemonic)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	// Regular is 10 sat/vB, a legacy input spend is 190 vB.
	if tr.Direction() != core.DirectionRecovered || tr.Fee().Value != 1_900 || tr.Amount().Value != 98_100 {
		t.Errorf("direction=%s fee=%d amount=%d", tr.Direction(), tr.Fee().Value, tr.Amount().Value)
	}
	eventually(t, func() bool { return w.Balance().Value == 98_100 })

	if _, err := m.Sweep(ctx, w, testWIF, wallet.Regular, testMnemonic); !errors.Is(err, backend.ErrNoSweepFunds) {
		t.Errorf("expected ErrNoSweepFunds on second sweep, got %v", err)
	}
}

func TestSendWithWrongSeed(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 100_000)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := f.manager.Send(ctx, w, destSegwit, core.NewAmount(20_000, w.Currency()), wallet.Priority, otherMnemonic)
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("expected ErrSubmitFailed, got %v", err)
	}
	if tr.State() != core.TransferStateFailed {
		t.Errorf("state = %s", tr.State())
	}
	// A failed transfer stays visible.
	if len(w.Transfers()) != 2 {
		t.Errorf("visible transfers = %d, want 2", len(w.Transfers()))
	}
}

func TestSendInvalidInput(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 1_000)
	ctx := context.Background()

	if _, err := f.manager.Send(ctx, w, "nonsense", core.NewAmount(600, w.Currency()), wallet.Economy, testMnemonic); !errors.Is(err, wallet.ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if _, err := f.manager.Send(ctx, w, destSegwit, core.NewAmount(900, w.Currency()), wallet.Priority, testMnemonic); !errors.Is(err, ErrEstimationFailed) {
		t.Errorf("expected ErrEstimationFailed, got %v", err)
	}
}

func TestPay(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 1_000_000)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := f.manager.Pay(ctx, w, "bitcoin:"+destSegwit+"?amount=0.002&label=shop", wallet.Economy, testMnemonic)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if tr.Amount().Value != 200_000 || tr.Target() != destSegwit {
		t.Errorf("transfer amount=%d target=%s", tr.Amount().Value, tr.Target())
	}

	if _, err := f.manager.Pay(ctx, w, "bitcoin:"+destSegwit, wallet.Economy, testMnemonic); !errors.Is(err, wallet.ErrInvalidAmountOrFee) {
		t.Errorf("expected ErrInvalidAmountOrFee without amount, got %v", err)
	}
}

func TestRefreshFees(t *testing.T) {
	f := newFixture(t)
	if got := len(f.network.Fees()); got != 3 {
		t.Fatalf("fees = %d, want 3", got)
	}

	other, _ := backend.NewBitcoinNetwork(backend.NetworkSignet)
	if _, err := f.manager.AddNetwork(other, failingSource{}, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.manager.RefreshFees(context.Background()); err == nil {
		t.Fatal("expected error from failing fee source")
	}
}

func TestUpdateFeesFromWallet(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 0)
	f.network.SetFees(nil)

	w.UpdateNetworkFees()
	eventually(t, func() bool { return len(w.Fees()) == 3 })
}

func TestSerialiseRoundTrip(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 50_000)

	data, err := f.manager.Serialise()
	if err != nil {
		t.Fatalf("Serialise: %v", err)
	}

	g := newFixture(t)
	if err := g.manager.DeSerialise(data); err != nil {
		t.Fatalf("DeSerialise: %v", err)
	}
	restored, ok := g.manager.PrimaryWallet()
	if !ok {
		t.Fatal("no wallet after DeSerialise")
	}
	if restored.Balance().Value != 50_000 {
		t.Errorf("balance = %d", restored.Balance().Value)
	}
	if restored.ReceiveAddress() != w.ReceiveAddress() {
		t.Errorf("address = %s, want %s", restored.ReceiveAddress(), w.ReceiveAddress())
	}
	if len(restored.Transfers()) != 1 {
		t.Errorf("transfers = %d", len(restored.Transfers()))
	}
}

func TestTxHistoryItemJSON(t *testing.T) {
	btc := backend.BitcoinCurrency(backend.NetworkMainnet)
	fiat := decimal.NewFromFloat(-12.5)
	item := TxHistoryItem{
		Hash:      "ab",
		Direction: core.DirectionSent,
		State:     core.TransferStateIncluded,
		Timestamp: time.Unix(1700000000, 0),
		NetAmount: core.NewAmount(-21_410, btc),
		Fiat:      &fiat,
		FiatCode:  "USD",
	}
	data, err := json.Marshal(&item)
	if err != nil {
		t.Fatal(err)
	}
	var got TxHistoryItemJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.NetAmount != "-0.00021410" || got.Direction != "sent" || got.Fiat != "-12.50" || got.Timestamp != 1700000000 {
		t.Errorf("unexpected json %s", data)
	}
}
