// Package config loads harness configuration from environment variables and
// an optional .swapflow.yaml file.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// Config holds the manual harness configuration.
type Config struct {
	BackendURL     string
	DatabaseURL    string
	ChainID        uint64
	ChainName      string
	ChainType      types.ChainType
	RpcURL         string
	PrivateKey     string
	PayerAddress   string
	DepositAddress string
	WaitNBlocks    uint64
	LogLevel       string
}

// Load reads configuration from environment variables and config file.
//
// Returns:
// - *Config: the loaded configuration.
// - error: an error if a required value is missing.
func Load() (*Config, error) {
	viper.SetConfigName(".swapflow")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("chain_type", "SEQUENCED")
	viper.SetDefault("wait_n_blocks", 1)
	viper.SetDefault("log_level", "info")

	viper.SetEnvPrefix("SWAPFLOW")
	viper.AutomaticEnv()

	// Config file is optional, env vars alone are enough.
	_ = viper.ReadInConfig()

	cfg := &Config{
		BackendURL:     viper.GetString("backend_url"),
		DatabaseURL:    viper.GetString("database_url"),
		ChainID:        viper.GetUint64("chain_id"),
		ChainName:      viper.GetString("chain_name"),
		ChainType:      types.ParseChainType(strings.ToUpper(viper.GetString("chain_type"))),
		RpcURL:         viper.GetString("rpc_url"),
		PrivateKey:     viper.GetString("private_key"),
		PayerAddress:   viper.GetString("payer_address"),
		DepositAddress: viper.GetString("deposit_address"),
		WaitNBlocks:    viper.GetUint64("wait_n_blocks"),
		LogLevel:       viper.GetString("log_level"),
	}

	if cfg.BackendURL == "" {
		return nil, errors.New("backend URL not found, set SWAPFLOW_BACKEND_URL or create a .swapflow.yaml config file")
	}
	if cfg.ChainType == types.UNKNOWN {
		return nil, errors.Errorf("unknown chain type %q", viper.GetString("chain_type"))
	}

	return cfg, nil
}

// ChainConfig converts the harness configuration into a chain configuration
// suitable for registration.
func (c *Config) ChainConfig() *types.ChainConfig {
	return &types.ChainConfig{
		Name:         c.ChainName,
		ChainType:    c.ChainType,
		ChainID:      c.ChainID,
		RpcUrl:       c.RpcURL,
		WaitNBlocks:  c.WaitNBlocks,
		PrivateKey:   c.PrivateKey,
		PayerAddress: c.PayerAddress,
	}
}
