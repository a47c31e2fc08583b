package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
	"github.com/setavenger/walletcore/internal/wallet"
)

var (
	ErrEstimationFailed = errors.New("fee estimation failed")
	ErrSubmitFailed     = errors.New("transfer submission failed")
)

// EstimateBasis runs a fee estimation and waits for its result. ctx only
// bounds the wait; the estimation itself keeps running.
func (m *Manager) EstimateBasis(
	ctx context.Context,
	w *wallet.Wallet,
	address string,
	amount core.Amount,
	level wallet.FeeLevel,
) (*core.FeeBasis, error) {
	result := make(chan *core.FeeBasis, 1)
	err := w.EstimateFee(address, amount, level, func(basis *core.FeeBasis) {
		result <- basis
	})
	if err != nil {
		return nil, err
	}

	select {
	case basis := <-result:
		if basis == nil {
			return nil, ErrEstimationFailed
		}
		return basis, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for fee estimate: %w", ctx.Err())
	}
}

// SubmitAndWait submits t and waits for its outcome: a TransferSubmitted
// event, or a TransferChanged event that leaves t submitted or failed,
// whichever arrives first.
func (m *Manager) SubmitAndWait(ctx context.Context, w *wallet.Wallet, t core.Transfer, seedPhrase string) error {
	id := wallet.NewSubscriberID()
	outcome := make(chan bool, 1)
	w.Subscribe(id, func(e core.WalletEvent) {
		if e.Transfer == nil || e.Transfer.Hash() != t.Hash() {
			return
		}
		var ok bool
		switch {
		case e.Kind == core.TransferSubmitted:
			ok = e.Success
		case e.Kind == core.TransferChanged:
			switch e.Transfer.State() {
			case core.TransferStateSubmitted, core.TransferStatePending, core.TransferStateIncluded:
				ok = true
			case core.TransferStateFailed:
				ok = false
			default:
				return
			}
		default:
			return
		}
		select {
		case outcome <- ok:
		default:
		}
	})
	defer w.Unsubscribe(id)

	w.SubmitTransfer(t, seedPhrase)

	select {
	case ok := <-outcome:
		if !ok {
			return ErrSubmitFailed
		}
		logging.L.Info().Str("hash", t.Hash()).Msg("transfer submitted")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for submission of %s: %w", t.Hash(), ctx.Err())
	}
}

// Send pays amount to address at the given fee level.
func (m *Manager) Send(
	ctx context.Context,
	w *wallet.Wallet,
	address string,
	amount core.Amount,
	level wallet.FeeLevel,
	seedPhrase string,
) (core.Transfer, error) {
	basis, err := m.EstimateBasis(ctx, w, address, amount, level)
	if err != nil {
		return nil, err
	}
	t, err := w.CreateTransfer(address, amount, *basis)
	if err != nil {
		return nil, err
	}
	if err := m.SubmitAndWait(ctx, w, t, seedPhrase); err != nil {
		return t, err
	}
	return t, nil
}

// Pay settles a BIP21 payment URI at the given fee level.
func (m *Manager) Pay(
	ctx context.Context,
	w *wallet.Wallet,
	uri string,
	level wallet.FeeLevel,
	seedPhrase string,
) (core.Transfer, error) {
	nw, err := nativeWallet(w)
	if err != nil {
		return nil, err
	}
	req, err := nw.ParsePaymentURI(uri)
	if err != nil {
		return nil, err
	}
	if req.Amount == nil {
		return nil, fmt.Errorf("%w: payment uri carries no amount", wallet.ErrInvalidAmountOrFee)
	}

	basis, err := m.EstimateBasis(ctx, w, req.Address, *req.Amount, level)
	if err != nil {
		return nil, err
	}
	t, err := w.CreateTransferForProtocolRequest(req, *basis)
	if err != nil {
		return nil, err
	}
	if err := m.SubmitAndWait(ctx, w, t, seedPhrase); err != nil {
		return t, err
	}
	return t, nil
}

// Sweep moves all funds of a WIF private key into w at the given fee level.
func (m *Manager) Sweep(
	ctx context.Context,
	w *wallet.Wallet,
	key string,
	level wallet.FeeLevel,
	seedPhrase string,
) (core.Transfer, error) {
	type created struct {
		sweeper core.Sweeper
		err     error
	}
	result := make(chan created, 1)
	w.CreateSweeper(key, func(s core.Sweeper, err error) {
		result <- created{s, err}
	})

	var sweeper core.Sweeper
	select {
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		sweeper = r.sweeper
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for sweeper: %w", ctx.Err())
	}

	fee, err := w.FeeForLevel(level)
	if err != nil {
		return nil, err
	}
	estimated := make(chan *core.FeeBasis, 1)
	sweeper.EstimateFee(fee, func(basis *core.FeeBasis, err error) {
		if err != nil {
			logging.L.Debug().Err(err).Msg("sweep fee estimation failed")
		}
		estimated <- basis
	})

	var basis *core.FeeBasis
	select {
	case basis = <-estimated:
		if basis == nil {
			return nil, ErrEstimationFailed
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for sweep fee estimate: %w", ctx.Err())
	}

	t, err := w.CreateSweepTransfer(sweeper, *basis)
	if err != nil {
		return nil, err
	}
	if err := m.SubmitAndWait(ctx, w, t, seedPhrase); err != nil {
		return t, err
	}
	return t, nil
}
