// Package storage handles the saving and retrieving of the applications data
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/setavenger/walletcore/internal/controller"
	"github.com/setavenger/walletcore/internal/logging"
)

const walletDataFilename = "wallet.dat"

// WalletPath is the location of the wallet file inside datadir.
func WalletPath(datadir string) string {
	return filepath.Join(datadir, walletDataFilename)
}

// Exists reports whether datadir holds a wallet file.
func Exists(datadir string) bool {
	_, err := os.Stat(WalletPath(datadir))
	return err == nil
}

func SavePlain(datadir string, m *controller.Manager) error {
	binaryData, err := m.Serialise()
	if err != nil {
		logging.L.Err(err).Msg("failed to serialise wallet data")
		return err
	}

	// written next to the wallet file and renamed into place
	walletPath := WalletPath(datadir)
	tmpPath := walletPath + ".tmp"
	if err := os.WriteFile(tmpPath, binaryData, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	if err := os.Rename(tmpPath, walletPath); err != nil {
		// the temporary file holds the mnemonic
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			logging.L.Err(rmErr).Str("path", tmpPath).Msg("failed to remove temporary wallet file")
		}
		return fmt.Errorf("failed to replace wallet file: %w", err)
	}

	logging.L.Debug().Str("path", walletPath).Int("bytes", len(binaryData)).Msg("wallet saved")
	return nil
}

// LoadPlain restores the wallets in datadir into m, whose networks must
// already be added.
func LoadPlain(datadir string, m *controller.Manager) error {
	data, err := os.ReadFile(WalletPath(datadir))
	if err != nil {
		logging.L.Err(err).Msg("failed to load wallet file")
		return err
	}

	if err := m.DeSerialise(data); err != nil {
		logging.L.Err(err).Msg("failed to deserialise wallet data")
		return err
	}
	return nil
}
