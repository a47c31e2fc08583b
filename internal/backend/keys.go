package backend

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

const (
	purposeSegwit = 84
	purposeLegacy = 44
)

// walletKeys are the public parts of a seed the wallet needs.
type walletKeys struct {
	// accountXpub identifies the seed, m/84'/coin'/0'.
	accountXpub string
	segwit      btcutil.Address
	legacy      btcutil.Address
}

func deriveWalletKeys(mnemonic string, params *chaincfg.Params) (*walletKeys, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	account, segwitKey, err := deriveReceiveKey(master, purposeSegwit, params.HDCoinType)
	if err != nil {
		return nil, err
	}
	xpub, err := account.Neuter()
	if err != nil {
		return nil, err
	}
	segwitHash, err := pubKeyHash(segwitKey)
	if err != nil {
		return nil, err
	}
	segwit, err := btcutil.NewAddressWitnessPubKeyHash(segwitHash, params)
	if err != nil {
		return nil, err
	}

	_, legacyKey, err := deriveReceiveKey(master, purposeLegacy, params.HDCoinType)
	if err != nil {
		return nil, err
	}
	legacyHash, err := pubKeyHash(legacyKey)
	if err != nil {
		return nil, err
	}
	legacy, err := btcutil.NewAddressPubKeyHash(legacyHash, params)
	if err != nil {
		return nil, err
	}

	return &walletKeys{accountXpub: xpub.String(), segwit: segwit, legacy: legacy}, nil
}

// deriveReceiveKey walks m/purpose'/coin'/0' and then 0/0 below the account.
func deriveReceiveKey(master *hdkeychain.ExtendedKey, purpose, coin uint32) (account, receive *hdkeychain.ExtendedKey, err error) {
	key := master
	for _, i := range []uint32{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coin,
		hdkeychain.HardenedKeyStart,
	} {
		if key, err = key.Derive(i); err != nil {
			return nil, nil, fmt.Errorf("failed to derive account key: %w", err)
		}
	}
	account = key
	for _, i := range []uint32{0, 0} {
		if key, err = key.Derive(i); err != nil {
			return nil, nil, fmt.Errorf("failed to derive receive key: %w", err)
		}
	}
	return account, key, nil
}

func pubKeyHash(key *hdkeychain.ExtendedKey) ([]byte, error) {
	pub, err := key.ECPubKey()
	if err != nil {
		return nil, err
	}
	return btcutil.Hash160(pub.SerializeCompressed()), nil
}

// NewMnemonic returns a fresh 24 word BIP39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}
