package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// EVMNetwork holds the RPC endpoint for one EVM-compatible deposit chain.
type EVMNetwork struct {
	RPCUrl  string
	ChainID int64
}

// SolanaConfig holds the RPC settings for Solana deposit watching.
type SolanaConfig struct {
	RPCUrl     string
	Commitment string
}

// Config holds the application configuration
type Config struct {
	JWTToken string
	RelayURL string

	// Asset delivered by the fiat processor on the deposit chain.
	DepositAsset string
	// Asset used to fund destination-chain account activation.
	ActivationAsset string
	// Referral tag attached to every intent leg.
	Referral string

	// Hex-encoded secp256k1 key for the built-in local signer. Optional;
	// an embedding host normally injects its own signer.
	SignerKey string

	DepositPollInterval    time.Duration
	DepositTimeout         time.Duration
	SettlementPollInterval time.Duration
	SettlementTimeout      time.Duration

	EVMNetworks map[string]EVMNetwork
	Solana      SolanaConfig

	// Block-explorer transaction URL templates keyed by chain, with a
	// single %s placeholder for the transaction or intent hash.
	Explorers map[string]string

	HistoryPath string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".ping-onramp")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("relay_url", "https://relay.pingpay.io")
	viper.SetDefault("deposit_asset", "USDC")
	viper.SetDefault("activation_asset", "wNEAR")
	viper.SetDefault("referral", "ping-onramp")
	viper.SetDefault("deposit_poll_interval", "7s")
	viper.SetDefault("deposit_timeout", "10m")
	viper.SetDefault("settlement_poll_interval", "5s")
	viper.SetDefault("settlement_timeout", "30m")
	viper.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana.commitment", "confirmed")
	viper.SetDefault("explorers", map[string]string{
		"near":     "https://nearblocks.io/txns/%s",
		"base":     "https://basescan.org/tx/%s",
		"arbitrum": "https://arbiscan.io/tx/%s",
		"ethereum": "https://etherscan.io/tx/%s",
		"solana":   "https://solscan.io/tx/%s",
	})

	// Read from environment variables
	viper.SetEnvPrefix("PING_ONRAMP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		JWTToken:               viper.GetString("jwt_token"),
		RelayURL:               viper.GetString("relay_url"),
		DepositAsset:           viper.GetString("deposit_asset"),
		ActivationAsset:        viper.GetString("activation_asset"),
		Referral:               viper.GetString("referral"),
		SignerKey:              viper.GetString("signer_key"),
		DepositPollInterval:    viper.GetDuration("deposit_poll_interval"),
		DepositTimeout:         viper.GetDuration("deposit_timeout"),
		SettlementPollInterval: viper.GetDuration("settlement_poll_interval"),
		SettlementTimeout:      viper.GetDuration("settlement_timeout"),
		Solana: SolanaConfig{
			RPCUrl:     viper.GetString("solana.rpc_url"),
			Commitment: viper.GetString("solana.commitment"),
		},
		Explorers:   viper.GetStringMapString("explorers"),
		HistoryPath: viper.GetString("history_path"),
	}

	cfg.EVMNetworks = make(map[string]EVMNetwork)
	for name := range viper.GetStringMap("evm_networks") {
		cfg.EVMNetworks[name] = EVMNetwork{
			RPCUrl:  viper.GetString(fmt.Sprintf("evm_networks.%s.rpc_url", name)),
			ChainID: viper.GetInt64(fmt.Sprintf("evm_networks.%s.chain_id", name)),
		}
	}

	// Validate JWT token
	if cfg.JWTToken == "" {
		return nil, fmt.Errorf("JWT token not found. Please set PING_ONRAMP_JWT_TOKEN environment variable or create a .ping-onramp.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
