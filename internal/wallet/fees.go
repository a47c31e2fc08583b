package wallet

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/setavenger/walletcore/internal/core"
)

// FeeLevel is a user selected confirmation speed.
type FeeLevel uint8

const (
	Economy FeeLevel = iota
	Regular
	Priority
)

func (l FeeLevel) String() string {
	switch l {
	case Economy:
		return "economy"
	case Regular:
		return "regular"
	case Priority:
		return "priority"
	default:
		return fmt.Sprintf("FeeLevel(%d)", uint8(l))
	}
}

func ParseFeeLevel(s string) (FeeLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "economy", "eco":
		return Economy, nil
	case "regular", "normal", "":
		return Regular, nil
	case "priority", "fast":
		return Priority, nil
	default:
		return 0, fmt.Errorf("unknown fee level %q", s)
	}
}

// FeePolicy maps each level to the confirmation time it aims for.
type FeePolicy map[FeeLevel]time.Duration

func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		Economy:  7 * time.Hour,
		Regular:  30 * time.Minute,
		Priority: 10 * time.Minute,
	}
}

// PreferredTime returns the target confirmation time for level.
func (p FeePolicy) PreferredTime(level FeeLevel) time.Duration {
	if d, ok := p[level]; ok {
		return d
	}
	return DefaultFeePolicy()[level]
}

// Fees returns the network's fee quotes ordered by descending confirmation
// time. Read from the network on every call.
func (w *Wallet) Fees() []core.NetworkFee {
	src := w.network().Fees()
	fees := make([]core.NetworkFee, len(src))
	copy(fees, src)
	sort.SliceStable(fees, func(i, j int) bool {
		return fees[i].ConfirmationTime > fees[j].ConfirmationTime
	})
	return fees
}

// FeeForLevel picks the fee whose confirmation time is closest to the level's
// preferred time. Ties go to the first fee in Fees order.
func (w *Wallet) FeeForLevel(level FeeLevel) (core.NetworkFee, error) {
	fee, ok := nearestFee(w.Fees(), w.policy.PreferredTime(level).Milliseconds())
	if !ok {
		return core.NetworkFee{}, ErrNoNetworkFees
	}
	return fee, nil
}

func nearestFee(fees []core.NetworkFee, targetMillis int64) (core.NetworkFee, bool) {
	if len(fees) == 0 {
		return core.NetworkFee{}, false
	}
	best := 0
	bestDiff := absDiff(fees[0].TimeMillis(), targetMillis)
	for i := 1; i < len(fees); i++ {
		if d := absDiff(fees[i].TimeMillis(), targetMillis); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return fees[best], true
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// EstimateFee asks the native wallet for the fee basis of sending amount to
// address at the given level. An unparsable address or a network without fee
// quotes is rejected before any work starts and completion is not called.
// Otherwise completion runs exactly once, with nil when estimation failed.
func (w *Wallet) EstimateFee(
	address string,
	amount core.Amount,
	level FeeLevel,
	completion func(*core.FeeBasis),
) error {
	target, ok := w.network().ParseAddress(address)
	if !ok {
		w.logger.Error().Str("address", address).Msg("fee estimation with unparsable address")
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	fees := w.Fees()
	var fee core.NetworkFee
	switch len(fees) {
	case 0:
		return ErrNoNetworkFees
	case 1:
		fee = fees[0]
	default:
		fee, _ = nearestFee(fees, w.policy.PreferredTime(level).Milliseconds())
	}

	w.logger.Debug().
		Str("level", level.String()).
		Dur("confirmation_time", fee.ConfirmationTime).
		Uint64("rate", fee.Rate).
		Msg("estimating fee")

	var once sync.Once
	w.core.EstimateFee(target, amount, fee, func(basis *core.FeeBasis, err error) {
		once.Do(func() {
			if err != nil {
				w.logger.Debug().Err(err).Msg("fee estimation failed")
				completion(nil)
				return
			}
			completion(basis)
		})
	})
	return nil
}

// UpdateNetworkFees asks the system to refresh fee quotes of all networks.
func (w *Wallet) UpdateNetworkFees() {
	w.system.UpdateFees()
}
