package setup

import (
	"fmt"
	"os"

	"github.com/setavenger/walletcore/internal/backend"
	"github.com/setavenger/walletcore/internal/configs"
	"github.com/setavenger/walletcore/internal/controller"
	"github.com/setavenger/walletcore/internal/dispatch"
	"github.com/setavenger/walletcore/internal/logging"
	"github.com/setavenger/walletcore/internal/storage"
	"github.com/setavenger/walletcore/internal/store"
	"github.com/setavenger/walletcore/internal/wallet"
)

// NewManagerWithDataDir creates a new wallet manager using the provided data directory.
// If dataDir is empty, it falls back to the default returned by configs.DefaultDataDir().
// Returns (manager, config, exists, error) where exists indicates if the wallet
// file holds a wallet for the configured network.
func NewManagerWithDataDir(dataDir string, ui dispatch.Dispatcher) (*controller.Manager, *configs.Config, bool, error) {
	if dataDir == "" {
		dataDir = configs.DefaultDataDir()
	} else {
		dataDir = configs.ResolvePath(dataDir)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, false, fmt.Errorf("failed to create data directory: %w", err)
	}

	config, err := configs.Load(dataDir)
	if err != nil {
		logging.L.Err(err).Msg("failed to load config")
		return nil, nil, false, err
	}
	logging.SetLogLevel(logging.ParseLevel(config.LogLevel))

	manager, err := NewManager(dataDir, config, ui)
	if err != nil {
		return nil, nil, false, err
	}

	if !storage.Exists(dataDir) {
		// Wallet doesn't exist, the caller has to create one
		return manager, config, false, nil
	}

	if err := storage.LoadPlain(dataDir, manager); err != nil {
		logging.L.Err(err).Msg("failed to load manager")
		return nil, nil, true, err
	}

	exists := manager.HasWallet(config.Network)
	if !exists {
		logging.L.Info().Str("network", config.Network).Msg("wallet file holds no wallet for network")
	}
	return manager, config, exists, nil
}

// NewManager wires a controller for the configured network without touching
// the wallet file.
func NewManager(dataDir string, config *configs.Config, ui dispatch.Dispatcher) (*controller.Manager, error) {
	network, err := backend.NewBitcoinNetwork(config.Network)
	if err != nil {
		return nil, err
	}
	network.SetFees(config.NetworkFees())

	manager := controller.NewManager(
		dataDir,
		store.New(),
		ui,
		controller.WithDustLimit(config.DustLimit),
		controller.WithWalletOptions(
			wallet.WithFeePolicy(config.FeePolicy()),
			wallet.WithSubmitCompensation(config.SubmitCompensation),
		),
	)

	var opts []backend.ManagerOption
	if src := SweepSource(config, network); src != nil {
		opts = append(opts, backend.WithSweepSource(src))
	}
	if _, err := manager.AddNetwork(network, FeeSource(config), backend.Loopback, opts...); err != nil {
		return nil, err
	}
	return manager, nil
}

// FeeSource picks the electrum server when enabled and the static table
// otherwise.
func FeeSource(config *configs.Config) backend.FeeSource {
	if config.ElectrumFees && config.ElectrumURL != "" {
		return &backend.ElectrumFees{URL: config.ElectrumURL}
	}
	return backend.StaticFees(config.NetworkFees())
}

// SweepSource looks up imported keys on the electrum server when enabled.
// nil leaves the backend's in-memory source in place.
func SweepSource(config *configs.Config, network *backend.Network) backend.SweepSource {
	if config.ElectrumFees && config.ElectrumURL != "" {
		return &backend.ElectrumFunds{URL: config.ElectrumURL, Params: network.Params()}
	}
	return nil
}
