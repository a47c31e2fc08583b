package wallet

import (
	"sync"

	"github.com/setavenger/walletcore/internal/core"
)

// CreateSweeper prepares moving the funds of a private key (WIF) into this
// wallet. completion runs once, from the native layer's goroutine.
func (w *Wallet) CreateSweeper(key string, completion func(core.Sweeper, error)) {
	var once sync.Once
	w.core.CreateSweeper(key, func(s core.Sweeper, err error) {
		once.Do(func() {
			if err != nil {
				w.logger.Debug().Err(err).Msg("sweeper creation failed")
				completion(nil, err)
				return
			}
			w.logger.Info().
				Str("address", s.Address().String()).
				Int64("balance", s.Balance().Value).
				Msg("sweeper created")
			completion(s, nil)
		})
	})
}

// CreateSweepTransfer builds the transfer moving a sweeper's funds. Submit it
// like any other transfer with SubmitTransfer.
func (w *Wallet) CreateSweepTransfer(s core.Sweeper, basis core.FeeBasis) (core.Transfer, error) {
	t, err := s.CreateTransfer(basis)
	if err != nil || t == nil {
		w.logger.Debug().Err(err).Int64("fee", basis.Fee().Value).Msg("sweep transfer refused")
		return nil, ErrInvalidAmountOrFee
	}
	return t, nil
}
