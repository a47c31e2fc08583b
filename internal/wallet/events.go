package wallet

import (
	"github.com/google/uuid"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/store"
)

// SubscriberID identifies a subscriber. All callbacks registered under one id
// are removed together.
type SubscriberID string

// NewSubscriberID returns a fresh random id for subscribers without a
// natural identity of their own.
func NewSubscriberID() SubscriberID {
	return SubscriberID(uuid.NewString())
}

type EventCallback func(core.WalletEvent)

// Subscribe appends cb to the callbacks of id.
func (w *Wallet) Subscribe(id SubscriberID, cb EventCallback) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	if _, ok := w.subscriptions[id]; !ok {
		w.subscriberIDs = append(w.subscriberIDs, id)
	}
	w.subscriptions[id] = append(w.subscriptions[id], cb)
}

// Unsubscribe removes every callback of id.
func (w *Wallet) Unsubscribe(id SubscriberID) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	if _, ok := w.subscriptions[id]; !ok {
		return
	}
	delete(w.subscriptions, id)
	for i, sid := range w.subscriberIDs {
		if sid == id {
			w.subscriberIDs = append(w.subscriberIDs[:i], w.subscriberIDs[i+1:]...)
			break
		}
	}
}

// publish calls every callback synchronously on the calling goroutine,
// subscriber by subscriber in the order they first subscribed.
func (w *Wallet) publish(event core.WalletEvent) {
	w.subMu.RLock()
	var callbacks []EventCallback
	for _, id := range w.subscriberIDs {
		callbacks = append(callbacks, w.subscriptions[id]...)
	}
	w.subMu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}
}

// HandleWalletEvent applies the local effects of a native wallet event and
// then rebroadcasts it unchanged to subscribers.
func (w *Wallet) HandleWalletEvent(event core.WalletEvent) {
	w.logger.Trace().Str("event", event.Kind.String()).Msg("wallet event")

	switch event.Kind {
	case core.TransferSubmitted:
		if w.compensateSubmit {
			w.logger.Warn().Msg("native layer emitted transfer_submitted, synthetic submission events may be duplicated")
		}

	case core.BalanceUpdated:
		balance := core.NewAmount(event.Balance.Value, w.currency)
		w.ui.Async(func() {
			w.state.Perform(w.currency, store.SetBalance(balance))
			// No sync-ended signal comes from the native layer; a balance
			// update is taken as the wallet having settled.
			w.state.Perform(w.currency, store.SetSyncState(store.SyncSuccess))
		})

	case core.TransferAdded, core.TransferChanged, core.TransferDeleted,
		core.FeeBasisUpdated, core.FeeBasisEstimated,
		core.WalletCreated, core.WalletChanged, core.WalletDeleted:
	}

	w.publish(event)
}

// HandleTransferEvent turns a transfer reaching Submitted or Failed into a
// TransferSubmitted wallet event, which the native layer never sends itself.
func (w *Wallet) HandleTransferEvent(event core.TransferEvent, t core.Transfer) {
	w.logger.Trace().
		Str("hash", t.Hash()).
		Str("old", event.Old.String()).
		Str("new", event.New.String()).
		Msg("transfer event")

	if !w.compensateSubmit || event.Kind != core.TransferEventChanged {
		return
	}
	switch event.New {
	case core.TransferStateSubmitted:
		w.publish(core.TransferSubmittedEvent(t, true))
	case core.TransferStateFailed:
		w.publish(core.TransferSubmittedEvent(t, false))
	}
}
