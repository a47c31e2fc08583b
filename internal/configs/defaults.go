package configs

import (
	"os"
	"path/filepath"

	"github.com/setavenger/walletcore/internal/logging"
)

// DefaultDataDir returns the default data dir "~/.walletcore/"
// if homedir is not found falls back to current directory "."
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logging.L.Err(err).Msg("error getting home directory")
		logging.L.Info().Msg("falling back to current directory")
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".walletcore")
	logging.L.Trace().Str("data_dir", dataDir).Msg("data directory")
	return dataDir
}

// ResolvePath expands a leading ~ to the home directory.
func ResolvePath(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

const (
	DefaultElectrumURLMainnet = "ssl://electrum.blockstream.info:50002"
	DefaultElectrumURLTestnet = "ssl://electrum.blockstream.info:60002"
	DefaultNetwork            = "mainnet"
	DefaultMinimumAmount      = 546
	DefaultLogLevel           = "info"
)

// DefaultElectrumURLForNetwork returns the default electrum server for a given network.
func DefaultElectrumURLForNetwork(network string) string {
	switch network {
	case "mainnet":
		return DefaultElectrumURLMainnet
	case "testnet":
		return DefaultElectrumURLTestnet
	default:
		return ""
	}
}
