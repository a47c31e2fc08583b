package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/store"
)

// Transaction is a display view of a visible transfer.
type Transaction struct {
	Hash      string                 `json:"hash"`
	Direction core.TransferDirection `json:"direction"`
	State     core.TransferState     `json:"state"`
	Timestamp time.Time              `json:"timestamp"`
	Amount    core.Amount            `json:"amount"`
	Fee       core.Amount            `json:"fee"`
	Target    string                 `json:"target"`
	Rate      *store.Rate            `json:"rate,omitempty"`
}

func newTransaction(t core.Transfer, currency core.Currency, rate *store.Rate) Transaction {
	return Transaction{
		Hash:      t.Hash(),
		Direction: t.Direction(),
		State:     t.State(),
		Timestamp: t.Timestamp(),
		Amount:    core.NewAmount(t.Amount().Value, currency),
		Fee:       t.Fee(),
		Target:    t.Target(),
		Rate:      rate,
	}
}

// IsPending is true until the transfer is included in a block or failed.
func (t Transaction) IsPending() bool {
	return t.State == core.TransferStateSubmitted || t.State == core.TransferStatePending
}

// FiatValue is the amount in the rate's fiat currency. False without a rate.
func (t Transaction) FiatValue() (decimal.Decimal, bool) {
	if t.Rate == nil {
		return decimal.Zero, false
	}
	return t.Amount.Decimal().Mul(t.Rate.Value).Round(2), true
}
