package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/setavenger/go-electrum/electrum"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
)

// BlockInterval is the expected time between two blocks.
const BlockInterval = 10 * time.Minute

// FeeSource supplies fee quotes for a network.
type FeeSource interface {
	Fees(ctx context.Context) ([]core.NetworkFee, error)
}

// StaticFees is a fixed fee table, usually taken from the config file.
type StaticFees []core.NetworkFee

func (s StaticFees) Fees(context.Context) ([]core.NetworkFee, error) {
	out := make([]core.NetworkFee, len(s))
	copy(out, s)
	return out, nil
}

// DefaultStaticFees is used when neither config nor an electrum server
// supply quotes.
func DefaultStaticFees() StaticFees {
	return StaticFees{
		{ConfirmationTime: 10 * time.Minute, Rate: 20},
		{ConfirmationTime: 30 * time.Minute, Rate: 10},
		{ConfirmationTime: 6 * time.Hour, Rate: 2},
	}
}

// DefaultFeeTargets are the block targets asked from an electrum server.
var DefaultFeeTargets = []uint32{1, 3, 6, 36}

var errNoElectrumEstimate = errors.New("electrum server has no fee estimate")

// ElectrumFees asks an electrum server for fee estimates via
// blockchain.estimatefee, one quote per block target.
type ElectrumFees struct {
	// URL is ssl://host:port or tcp://host:port.
	URL     string
	Targets []uint32
}

func (e *ElectrumFees) Fees(ctx context.Context) ([]core.NetworkFee, error) {
	client, err := dialElectrum(ctx, e.URL)
	if err != nil {
		return nil, err
	}
	defer client.Shutdown()

	targets := e.Targets
	if len(targets) == 0 {
		targets = DefaultFeeTargets
	}

	fees := make([]core.NetworkFee, 0, len(targets))
	for _, target := range targets {
		btcPerKB, err := client.GetFee(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("estimatefee %d: %w", target, err)
		}
		rate, err := satPerVByte(float64(btcPerKB))
		if err != nil {
			logging.L.Debug().Err(err).Uint32("target", target).Msg("skipping fee target")
			continue
		}
		fees = append(fees, core.NetworkFee{
			ConfirmationTime: time.Duration(target) * BlockInterval,
			Rate:             rate,
		})
	}
	return fees, nil
}

func dialElectrum(ctx context.Context, url string) (*electrum.Client, error) {
	switch {
	case strings.HasPrefix(url, "ssl://"):
		addr := strings.TrimPrefix(url, "ssl://")
		host, _, _ := strings.Cut(addr, ":")
		client, err := electrum.NewClientSSL(ctx, addr, &tls.Config{ServerName: host})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to electrum server %s: %w", url, err)
		}
		return client, nil
	case strings.HasPrefix(url, "tcp://"):
		client, err := electrum.NewClientTCP(ctx, strings.TrimPrefix(url, "tcp://"), "")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to electrum server %s: %w", url, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("invalid electrum url %q, want ssl:// or tcp://", url)
	}
}

// satPerVByte converts a BTC/kB estimate to a whole sat/vB rate, rounding up
// and never below 1.
func satPerVByte(btcPerKB float64) (uint64, error) {
	if btcPerKB <= 0 {
		return 0, errNoElectrumEstimate
	}
	perKB, err := btcutil.NewAmount(btcPerKB)
	if err != nil {
		return 0, err
	}
	rate := (uint64(perKB) + 999) / 1000
	if rate == 0 {
		rate = 1
	}
	return rate, nil
}
