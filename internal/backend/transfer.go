package backend

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/setavenger/walletcore/internal/core"
)

type Transfer struct {
	wallet    *Wallet
	hash      string
	direction core.TransferDirection
	timestamp time.Time
	amount    core.Amount
	fee       core.Amount
	target    string
	// source is the swept address of a recovered transfer.
	source string

	mu    sync.RWMutex
	state core.TransferState
}

func newTransfer(
	w *Wallet,
	direction core.TransferDirection,
	state core.TransferState,
	amount, fee core.Amount,
	target string,
	timestamp time.Time,
) *Transfer {
	return &Transfer{
		wallet:    w,
		hash:      transferHash(direction, amount.Value, fee.Value, target, timestamp).String(),
		direction: direction,
		timestamp: timestamp,
		amount:    amount,
		fee:       fee,
		target:    target,
		state:     state,
	}
}

// transferHash stands in for a txid until the transfer is really broadcast.
func transferHash(direction core.TransferDirection, amount, fee int64, target string, ts time.Time) chainhash.Hash {
	buf := make([]byte, 0, 25+len(target))
	buf = append(buf, byte(direction))
	buf = binary.BigEndian.AppendUint64(buf, uint64(amount))
	buf = binary.BigEndian.AppendUint64(buf, uint64(fee))
	buf = binary.BigEndian.AppendUint64(buf, uint64(ts.UnixNano()))
	buf = append(buf, target...)
	return chainhash.DoubleHashH(buf)
}

func (t *Transfer) Hash() string { return t.hash }

func (t *Transfer) State() core.TransferState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Transfer) Direction() core.TransferDirection { return t.direction }
func (t *Transfer) Timestamp() time.Time              { return t.timestamp }
func (t *Transfer) Amount() core.Amount               { return t.amount }
func (t *Transfer) Fee() core.Amount                  { return t.fee }
func (t *Transfer) Target() string                    { return t.target }

// compareAndSetState moves the transfer to next only while it is in from.
func (t *Transfer) compareAndSetState(from, next core.TransferState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != from {
		return false
	}
	t.state = next
	return true
}
