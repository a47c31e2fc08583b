package core

type WalletEventKind uint8

const (
	WalletCreated WalletEventKind = iota + 1
	WalletChanged
	WalletDeleted
	TransferAdded
	TransferChanged
	TransferDeleted
	TransferSubmitted
	BalanceUpdated
	FeeBasisUpdated
	FeeBasisEstimated
)

func (k WalletEventKind) String() string {
	switch k {
	case WalletCreated:
		return "created"
	case WalletChanged:
		return "changed"
	case WalletDeleted:
		return "deleted"
	case TransferAdded:
		return "transfer_added"
	case TransferChanged:
		return "transfer_changed"
	case TransferDeleted:
		return "transfer_deleted"
	case TransferSubmitted:
		return "transfer_submitted"
	case BalanceUpdated:
		return "balance_updated"
	case FeeBasisUpdated:
		return "fee_basis_updated"
	case FeeBasisEstimated:
		return "fee_basis_estimated"
	default:
		return "unknown"
	}
}

// WalletEvent is a wallet level lifecycle event. Only the fields relevant to
// Kind are set.
type WalletEvent struct {
	Kind     WalletEventKind
	Transfer Transfer  // TransferAdded, TransferChanged, TransferDeleted, TransferSubmitted
	Success  bool      // TransferSubmitted
	Balance  Amount    // BalanceUpdated
	FeeBasis *FeeBasis // FeeBasisUpdated, FeeBasisEstimated
}

func BalanceUpdatedEvent(balance Amount) WalletEvent {
	return WalletEvent{Kind: BalanceUpdated, Balance: balance}
}

func TransferSubmittedEvent(t Transfer, success bool) WalletEvent {
	return WalletEvent{Kind: TransferSubmitted, Transfer: t, Success: success}
}

func TransferEventOf(kind WalletEventKind, t Transfer) WalletEvent {
	return WalletEvent{Kind: kind, Transfer: t}
}

type TransferEventKind uint8

const (
	TransferEventCreated TransferEventKind = iota + 1
	TransferEventChanged
	TransferEventDeleted
)

// TransferEvent describes a state transition of a single transfer.
type TransferEvent struct {
	Kind TransferEventKind
	Old  TransferState
	New  TransferState
}

// Listener receives native events. The native library calls it from its own
// goroutines.
type Listener interface {
	HandleWalletEvent(w NativeWallet, event WalletEvent)
	HandleTransferEvent(w NativeWallet, t Transfer, event TransferEvent)
}
