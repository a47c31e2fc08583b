package controller

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/wallet"
)

type TxHistoryItem struct {
	Hash      string
	Direction core.TransferDirection
	State     core.TransferState
	Timestamp time.Time
	NetAmount core.Amount // negative for sends, fee included
	Fiat      *decimal.Decimal
	FiatCode  string
}

type TxHistoryItemJSON struct {
	Hash      string `json:"hash"`
	Direction string `json:"direction"`
	State     string `json:"state"`
	Timestamp int64  `json:"timestamp"`
	NetAmount string `json:"net_amount"`
	Currency  string `json:"currency"`
	Fiat      string `json:"fiat,omitempty"`
	FiatCode  string `json:"fiat_code,omitempty"`
}

func (t *TxHistoryItem) MarshalJSON() ([]byte, error) {
	alias := TxHistoryItemJSON{
		Hash:      t.Hash,
		Direction: t.Direction.String(),
		State:     t.State.String(),
		Timestamp: t.Timestamp.Unix(),
		NetAmount: t.NetAmount.Decimal().StringFixed(int32(t.NetAmount.Currency.Decimals)),
		Currency:  t.NetAmount.Currency.Code,
		FiatCode:  t.FiatCode,
	}
	if t.Fiat != nil {
		alias.Fiat = t.Fiat.StringFixed(2)
	}
	return json.Marshal(alias)
}

// TransactionHistory lists the visible transfers of w, most recent first.
func (m *Manager) TransactionHistory(w *wallet.Wallet) []TxHistoryItem {
	txs := w.Transactions()
	items := make([]TxHistoryItem, 0, len(txs))
	for _, tx := range txs {
		net := tx.Amount
		if tx.Direction == core.DirectionSent {
			net = core.NewAmount(-(tx.Amount.Value + tx.Fee.Value), tx.Amount.Currency)
		}
		item := TxHistoryItem{
			Hash:      tx.Hash,
			Direction: tx.Direction,
			State:     tx.State,
			Timestamp: tx.Timestamp,
			NetAmount: net,
		}
		if v, ok := tx.FiatValue(); ok {
			if tx.Direction == core.DirectionSent {
				v = v.Neg()
			}
			item.Fiat = &v
			item.FiatCode = tx.Rate.Code
		}
		items = append(items, item)
	}
	return items
}
