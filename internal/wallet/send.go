package wallet

import (
	"fmt"

	"github.com/setavenger/walletcore/internal/core"
)

// CreateTransfer builds a transfer of amount to address. Nothing is
// broadcast; see SubmitTransfer.
func (w *Wallet) CreateTransfer(address string, amount core.Amount, basis core.FeeBasis) (core.Transfer, error) {
	target, ok := w.network().ParseAddress(address)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	t, err := w.core.CreateTransfer(target, amount, basis)
	if err != nil || t == nil {
		w.logger.Debug().Err(err).
			Int64("amount", amount.Value).
			Int64("fee", basis.Fee().Value).
			Msg("native wallet refused transfer")
		return nil, ErrInvalidAmountOrFee
	}
	return t, nil
}

// CreateTransferForProtocolRequest builds the transfer a payment request asks for.
func (w *Wallet) CreateTransferForProtocolRequest(req core.PaymentProtocolRequest, basis core.FeeBasis) (core.Transfer, error) {
	if req.PrimaryTarget() == nil {
		return nil, ErrInvalidAddress
	}
	t, err := req.CreateTransfer(basis)
	if err != nil || t == nil {
		w.logger.Debug().Err(err).Msg("payment request transfer refused")
		return nil, ErrInvalidAmountOrFee
	}
	return t, nil
}

// SubmitTransfer signs t with seedPhrase and starts broadcasting it. The
// result arrives later as a TransferSubmitted wallet event.
func (w *Wallet) SubmitTransfer(t core.Transfer, seedPhrase string) {
	w.logger.Info().
		Int64("amount", t.Amount().Value).
		Str("target", t.Target()).
		Msg("submitting transfer")
	w.core.Manager().Submit(t, seedPhrase)
}
