package core

import "time"

// TransferState is the lifecycle state of a transfer.
type TransferState uint8

const (
	TransferStateCreated TransferState = iota + 1
	TransferStateSigned
	TransferStateSubmitted
	TransferStatePending
	TransferStateIncluded
	TransferStateFailed
	TransferStateDeleted
)

func (s TransferState) String() string {
	switch s {
	case TransferStateCreated:
		return "created"
	case TransferStateSigned:
		return "signed"
	case TransferStateSubmitted:
		return "submitted"
	case TransferStatePending:
		return "pending"
	case TransferStateIncluded:
		return "included"
	case TransferStateFailed:
		return "failed"
	case TransferStateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// IsVisible reports whether a transfer in this state is shown to the user.
// Transfers that were never handed to the network are hidden.
func (s TransferState) IsVisible() bool {
	switch s {
	case TransferStateCreated, TransferStateSigned, TransferStateDeleted:
		return false
	default:
		return true
	}
}

type TransferDirection uint8

const (
	DirectionSent TransferDirection = iota + 1
	DirectionReceived
	DirectionRecovered
)

func (d TransferDirection) String() string {
	switch d {
	case DirectionSent:
		return "sent"
	case DirectionReceived:
		return "received"
	case DirectionRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Transfer is a pending or historical value transfer owned by the native library.
type Transfer interface {
	// Hash is empty until the transfer has been signed.
	Hash() string
	State() TransferState
	Direction() TransferDirection
	Timestamp() time.Time
	Amount() Amount
	Fee() Amount
	Target() string
}
