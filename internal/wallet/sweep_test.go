package wallet

import (
	"errors"
	"testing"
	"time"

	"github.com/setavenger/walletcore/internal/core"
)

func TestCreateSweeper(t *testing.T) {
	type result struct {
		sweeper core.Sweeper
		err     error
	}
	run := func(t *testing.T, native *fakeNative) []result {
		t.Helper()
		env := newTestEnv(t, native)
		ch := make(chan result, 2)
		env.wallet.CreateSweeper("wif", func(s core.Sweeper, err error) {
			ch <- result{s, err}
		})
		var got []result
		timeout := time.After(200 * time.Millisecond)
		for {
			select {
			case r := <-ch:
				got = append(got, r)
			case <-timeout:
				return got
			}
		}
	}

	t.Run("success once", func(t *testing.T) {
		native := newFakeNative()
		native.sweeper = &fakeSweeper{balance: core.NewAmount(20_000, btc)}
		native.sweepTwice = true
		got := run(t, native)
		if len(got) != 1 {
			t.Fatalf("completion called %d times, want 1", len(got))
		}
		if got[0].err != nil || got[0].sweeper.Balance().Value != 20_000 {
			t.Errorf("unexpected result %+v", got[0])
		}
	})

	t.Run("error", func(t *testing.T) {
		native := newFakeNative()
		native.sweepErr = errRefused
		got := run(t, native)
		if len(got) != 1 || !errors.Is(got[0].err, errRefused) || got[0].sweeper != nil {
			t.Fatalf("unexpected results %+v", got)
		}
	})
}

func TestCreateSweepTransfer(t *testing.T) {
	env := newTestEnv(t, newFakeNative())
	basis := core.FeeBasis{Currency: btc, PricePerCostFactor: 10, CostFactor: 110}

	tr, err := env.wallet.CreateSweepTransfer(&fakeSweeper{balance: core.NewAmount(20_000, btc)}, basis)
	if err != nil {
		t.Fatalf("CreateSweepTransfer: %v", err)
	}
	if tr.Direction() != core.DirectionRecovered || tr.Amount().Value != 18_900 {
		t.Errorf("direction=%s amount=%d", tr.Direction(), tr.Amount().Value)
	}

	_, err = env.wallet.CreateSweepTransfer(&fakeSweeper{err: errRefused}, basis)
	if !errors.Is(err, ErrInvalidAmountOrFee) {
		t.Errorf("expected ErrInvalidAmountOrFee, got %v", err)
	}
}
