package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/setavenger/walletcore/internal/wallet"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "walletcore.toml")); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	if c.Network != DefaultNetwork || c.DustLimit != DefaultMinimumAmount || !c.SubmitCompensation {
		t.Errorf("unexpected defaults: %+v", c)
	}
	policy := c.FeePolicy()
	if policy.PreferredTime(wallet.Economy) != 7*time.Hour ||
		policy.PreferredTime(wallet.Regular) != 30*time.Minute ||
		policy.PreferredTime(wallet.Priority) != 10*time.Minute {
		t.Errorf("unexpected fee policy: %v", policy)
	}
	fees := c.NetworkFees()
	if len(fees) != 3 || fees[2].ConfirmationTime != 6*time.Hour || fees[2].Rate != 2 {
		t.Errorf("unexpected static fees: %+v", fees)
	}

	// second load reads the file that was just written
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(again.NetworkFees()) != 3 {
		t.Errorf("static fees lost on reload: %+v", again.StaticFees)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `network = "signet"
dust_limit = 1000
fee_time_regular = "1h"
electrum_fees = true

[[static_fees]]
minutes = 60
rate = 4
`
	if err := os.WriteFile(filepath.Join(dir, "walletcore.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Network != "signet" || c.DustLimit != 1000 || !c.ElectrumFees {
		t.Errorf("overrides not applied: %+v", c)
	}
	if c.FeePolicy().PreferredTime(wallet.Regular) != time.Hour {
		t.Errorf("regular fee time = %s", c.FeePolicy().PreferredTime(wallet.Regular))
	}
	if c.FeeTimeEconomy != 7*time.Hour {
		t.Errorf("economy default lost: %s", c.FeeTimeEconomy)
	}
	fees := c.NetworkFees()
	if len(fees) != 1 || fees[0].ConfirmationTime != time.Hour || fees[0].Rate != 4 {
		t.Errorf("static fees = %+v", fees)
	}
}

func TestLoadRejectsBadFeeTime(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "walletcore.toml"), []byte(`fee_time_priority = "0s"`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for zero fee time")
	}
}

func TestSetNetwork(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetNetwork("testnet"); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}
	if c.ElectrumURL != DefaultElectrumURLTestnet {
		t.Errorf("electrum url = %s", c.ElectrumURL)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Network != "testnet" || reloaded.ElectrumURL != DefaultElectrumURLTestnet {
		t.Errorf("network change not persisted: %+v", reloaded)
	}
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ResolvePath("~/wallets"); got != filepath.Join(home, "wallets") {
		t.Errorf("ResolvePath = %s", got)
	}
	if got := ResolvePath("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ResolvePath = %s", got)
	}
}
