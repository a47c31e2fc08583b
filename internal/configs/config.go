package configs

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/setavenger/walletcore/internal/core"
	"github.com/setavenger/walletcore/internal/logging"
	"github.com/setavenger/walletcore/internal/wallet"
)

const configName = "walletcore"

type StaticFee struct {
	Minutes uint64 `mapstructure:"minutes"`
	Rate    uint64 `mapstructure:"rate"`
}

type Config struct {
	Network            string
	ElectrumURL        string
	ElectrumFees       bool
	DustLimit          int64
	FeeTimeEconomy     time.Duration
	FeeTimeRegular     time.Duration
	FeeTimePriority    time.Duration
	StaticFees         []StaticFee
	SubmitCompensation bool
	LogLevel           string

	v *viper.Viper
}

// setDefaultConfig sets default configuration values
func setDefaultConfig(config *viper.Viper) {
	config.SetDefault("network", DefaultNetwork)
	config.SetDefault("electrum_url", DefaultElectrumURLMainnet)
	config.SetDefault("electrum_fees", false)
	config.SetDefault("dust_limit", DefaultMinimumAmount)
	config.SetDefault("fee_time_economy", "7h")
	config.SetDefault("fee_time_regular", "30m")
	config.SetDefault("fee_time_priority", "10m")
	config.SetDefault("static_fees", []map[string]any{
		{"minutes": 10, "rate": 20},
		{"minutes": 30, "rate": 10},
		{"minutes": 360, "rate": 2},
	})
	config.SetDefault("submit_compensation", true)
	config.SetDefault("log_level", DefaultLogLevel)
}

// Load reads walletcore.toml from dataDir, writing one with defaults on
// first run.
func Load(dataDir string) (*Config, error) {
	config := viper.New()
	config.SetConfigName(configName)
	config.SetConfigType("toml")
	config.AddConfigPath(dataDir)

	setDefaultConfig(config)

	if err := config.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := config.WriteConfigAs(filepath.Join(dataDir, configName+".toml")); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		logging.L.Info().Str("data_dir", dataDir).Msg("default config file created")
	} else {
		logging.L.Debug().Str("file", config.ConfigFileUsed()).Msg("existing config loaded")
	}

	return fromViper(config)
}

func fromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		Network:            v.GetString("network"),
		ElectrumURL:        v.GetString("electrum_url"),
		ElectrumFees:       v.GetBool("electrum_fees"),
		DustLimit:          v.GetInt64("dust_limit"),
		FeeTimeEconomy:     v.GetDuration("fee_time_economy"),
		FeeTimeRegular:     v.GetDuration("fee_time_regular"),
		FeeTimePriority:    v.GetDuration("fee_time_priority"),
		SubmitCompensation: v.GetBool("submit_compensation"),
		LogLevel:           v.GetString("log_level"),
		v:                  v,
	}
	if err := v.UnmarshalKey("static_fees", &c.StaticFees); err != nil {
		return nil, fmt.Errorf("invalid static_fees: %w", err)
	}
	if c.DustLimit < 0 {
		return nil, fmt.Errorf("invalid dust_limit %d", c.DustLimit)
	}
	for _, d := range []time.Duration{c.FeeTimeEconomy, c.FeeTimeRegular, c.FeeTimePriority} {
		if d <= 0 {
			return nil, fmt.Errorf("fee times must be positive durations")
		}
	}
	return c, nil
}

// FeePolicy is the preferred confirmation time per fee level.
func (c *Config) FeePolicy() wallet.FeePolicy {
	return wallet.FeePolicy{
		wallet.Economy:  c.FeeTimeEconomy,
		wallet.Regular:  c.FeeTimeRegular,
		wallet.Priority: c.FeeTimePriority,
	}
}

// NetworkFees is the static fee table as network fee quotes.
func (c *Config) NetworkFees() []core.NetworkFee {
	fees := make([]core.NetworkFee, 0, len(c.StaticFees))
	for _, f := range c.StaticFees {
		fees = append(fees, core.NetworkFee{
			ConfirmationTime: time.Duration(f.Minutes) * time.Minute,
			Rate:             f.Rate,
		})
	}
	return fees
}

// SetNetwork switches the network and persists the change.
func (c *Config) SetNetwork(network string) error {
	c.v.Set("network", network)
	if url := DefaultElectrumURLForNetwork(network); url != "" && c.ElectrumURL == DefaultElectrumURLForNetwork(c.Network) {
		c.v.Set("electrum_url", url)
		c.ElectrumURL = url
	}
	c.Network = network
	return c.v.WriteConfig()
}
