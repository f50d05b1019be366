// Package config holds the runtime configuration of the payment service.
// Recipient addresses and token metadata are injected here per environment
// (mainnet vs testnet); nothing chain-specific is compiled in.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/openpay-labs/payflow/types"
)

const (
	// DefaultUTXOPollInterval is the Bitcoin watcher poll cadence.
	DefaultUTXOPollInterval = 15 * time.Second

	// DefaultConfirmTimeout bounds wall-clock confirmation waits.
	DefaultConfirmTimeout = 600 * time.Second
)

var validate = validator.New()

// ChainConfig configures one chain backend.
type ChainConfig struct {
	RPCURL         string        `validate:"required,url"`
	PollInterval   time.Duration `validate:"gte=0"`
	ConfirmTimeout time.Duration `validate:"gte=0"`
}

// Config is the full service configuration.
type Config struct {
	Env    types.NetworkEnv            `validate:"required,oneof=mainnet testnet"`
	Chains map[types.Chain]ChainConfig `validate:"dive"`

	// Recipient is keyed by RecipientKey; Tokens holds token metadata for
	// token-bearing chains.
	Recipient map[string]string
	Tokens    map[types.Chain]*types.TokenInfo

	LogLevel string
}

// RecipientKey identifies a configured recipient for a chain+token pair.
// Token is empty for native transfers.
func RecipientKey(chain types.Chain, token string) string {
	if token == "" {
		token = chain.NativeSymbol()
	}
	return fmt.Sprintf("%s:%s", chain, token)
}

// RecipientFor looks up the configured recipient for a chain+token pair.
func (c *Config) RecipientFor(chain types.Chain, token string) (string, bool) {
	addr, ok := c.Recipient[RecipientKey(chain, token)]
	return addr, ok
}

// Load reads configuration from the environment, first sourcing an optional
// .env file. A missing file is not an error so deployments can rely on real
// environment variables alone.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{
		Env:       types.NetworkEnv(getEnv("PAYFLOW_ENV", string(types.EnvMainnet))),
		Chains:    make(map[types.Chain]ChainConfig),
		Recipient: make(map[string]string),
		Tokens:    make(map[types.Chain]*types.TokenInfo),
		LogLevel:  getEnv("PAYFLOW_LOG_LEVEL", "info"),
	}

	chainEnvs := map[types.Chain]string{
		types.ChainSolNative: "PAYFLOW_SOLANA_RPC_URL",
		types.ChainSolSPL:    "PAYFLOW_SOLANA_RPC_URL",
		types.ChainBitcoin:   "PAYFLOW_BITCOIN_API_URL",
		types.ChainSui:       "PAYFLOW_SUI_RPC_URL",
		types.ChainEVM:       "PAYFLOW_EVM_RPC_URL",
	}
	for chain, key := range chainEnvs {
		url := os.Getenv(key)
		if url == "" {
			continue
		}
		cfg.Chains[chain] = ChainConfig{
			RPCURL:         url,
			PollInterval:   getDurationEnv("PAYFLOW_POLL_INTERVAL_SECONDS", DefaultUTXOPollInterval),
			ConfirmTimeout: getDurationEnv("PAYFLOW_CONFIRM_TIMEOUT_SECONDS", DefaultConfirmTimeout),
		}
	}

	recipientEnvs := map[types.Chain]string{
		types.ChainSolNative: "PAYFLOW_RECIPIENT_SOL",
		types.ChainSolSPL:    "PAYFLOW_RECIPIENT_SPL",
		types.ChainBitcoin:   "PAYFLOW_RECIPIENT_BTC",
		types.ChainSui:       "PAYFLOW_RECIPIENT_SUI",
		types.ChainEVM:       "PAYFLOW_RECIPIENT_EVM",
	}
	for chain, key := range recipientEnvs {
		if addr := os.Getenv(key); addr != "" {
			token := ""
			if chain == types.ChainSolSPL {
				token = getEnv("PAYFLOW_SPL_TOKEN_SYMBOL", "SPL")
			}
			cfg.Recipient[RecipientKey(chain, token)] = addr
		}
	}

	if mint := os.Getenv("PAYFLOW_SPL_TOKEN_MINT"); mint != "" {
		cfg.Tokens[types.ChainSolSPL] = &types.TokenInfo{
			Symbol:   getEnv("PAYFLOW_SPL_TOKEN_SYMBOL", "SPL"),
			Address:  mint,
			Decimals: int32(getIntEnv("PAYFLOW_SPL_TOKEN_DECIMALS", 9)),
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
