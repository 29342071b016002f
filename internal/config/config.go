// Package config defines the top-level configuration for the signer relay
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by STSTX_SIGNER_* environment
// variables. It is loaded once at startup and injected explicitly; no
// component reads the environment afterwards.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Hiro      HiroConfig      `toml:"hiro"`
	Coingecko CoingeckoConfig `toml:"coingecko"`
	Signer    SignerConfig    `toml:"signer"`
	Swap      SwapConfig      `toml:"swap"`
	Slippage  SlippageConfig  `toml:"slippage"`
	Fees      FeeConfig       `toml:"fees"`
	Risk      RiskConfig      `toml:"risk"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Notify    NotifyConfig    `toml:"notify"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	LogLevel  string          `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AuthToken      string   `toml:"auth_token"` // empty disables auth
	RequestTimeout duration `toml:"request_timeout"`
}

// HiroConfig holds Stacks node API parameters.
type HiroConfig struct {
	APIBase string   `toml:"api_base"`
	Timeout duration `toml:"timeout"`
}

// CoingeckoConfig holds price-feed parameters.
type CoingeckoConfig struct {
	APIBase     string `toml:"api_base"`
	StxCoinID   string `toml:"stx_coin_id"`
	StstxCoinID string `toml:"ststx_coin_id"`
}

// SignerConfig holds the signing key and target network.
type SignerConfig struct {
	PrivateKey string `toml:"private_key"`
	Network    string `toml:"network"` // "mainnet" or "testnet"
}

// SwapConfig pins the stableswap deployment the relay trades against.
type SwapConfig struct {
	DeployerAddress   string `toml:"deployer_address"`
	HelperContract    string `toml:"helper_contract"`
	HelperFunction    string `toml:"helper_function"`
	QuoteFunction     string `toml:"quote_function"`
	PoolAddress       string `toml:"pool_address"`
	PoolName          string `toml:"pool_name"`
	StxTokenAddress   string `toml:"stx_token_address"`
	StxTokenName      string `toml:"stx_token_name"`
	StstxTokenAddress string `toml:"ststx_token_address"`
	StstxTokenName    string `toml:"ststx_token_name"`
	ReadSender        string `toml:"read_sender"`
}

// SlippageConfig parameterizes the minimum-output policy. The original
// relay hardcoded extra=0.2 and floor=0.5; they are tunable per deployment
// here.
type SlippageConfig struct {
	ExtraPct float64 `toml:"extra_pct"`
	FloorPct float64 `toml:"floor_pct"`
}

// FeeConfig parameterizes network fee handling. When EstimateWhenOmitted
// is false a request without fee_stx simply pays the 1 micro-STX floor,
// matching the original relay.
type FeeConfig struct {
	MinFloorSTX         float64 `toml:"min_floor_stx"`
	Multiplier          float64 `toml:"multiplier"`
	CapSTX              float64 `toml:"cap_stx"`
	EstimatedTxBytes    int     `toml:"estimated_tx_bytes"`
	EstimateWhenOmitted bool    `toml:"estimate_when_omitted"`
}

// RiskConfig holds pre-trade limits. Zero values disable a limit.
type RiskConfig struct {
	MaxOrderUSD float64 `toml:"max_order_usd"`
}

// PostgresConfig holds broadcast-ledger connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds idempotency-cache connection parameters.
type RedisConfig struct {
	Enabled        bool     `toml:"enabled"`
	Addr           string   `toml:"addr"`
	Password       string   `toml:"password"`
	DB             int      `toml:"db"`
	PoolSize       int      `toml:"pool_size"`
	MaxRetries     int      `toml:"max_retries"`
	TLSEnabled     bool     `toml:"tls_enabled"`
	IdempotencyTTL duration `toml:"idempotency_ttl"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// ReconcileConfig drives the background poller that settles submitted
// ledger rows against the chain.
type ReconcileConfig struct {
	Enabled   bool     `toml:"enabled"`
	Interval  duration `toml:"interval"`
	MinTxAge  duration `toml:"min_tx_age"`
	BatchSize int      `toml:"batch_size"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the stableswap deployment the
// original relay was pinned to and reasonable operational defaults.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8788,
			RequestTimeout: duration{30 * time.Second},
		},
		Hiro: HiroConfig{
			APIBase: "https://api.hiro.so",
			Timeout: duration{30 * time.Second},
		},
		Coingecko: CoingeckoConfig{
			APIBase:     "https://api.coingecko.com/api/v3",
			StxCoinID:   "blockstack",
			StstxCoinID: "stacking-dao",
		},
		Signer: SignerConfig{
			Network: "mainnet",
		},
		Swap: SwapConfig{
			DeployerAddress:   "SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR",
			HelperContract:    "stableswap-swap-helper-v-1-4",
			HelperFunction:    "swap-helper-a",
			QuoteFunction:     "get-quote-a",
			PoolAddress:       "SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR",
			PoolName:          "stableswap-pool-stx-ststx-v-1-4",
			StxTokenAddress:   "SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR",
			StxTokenName:      "token-stx-v-1-2",
			StstxTokenAddress: "SP4SZE494VC2YC5JYG7AYFQ44F5Q4PYV7DVMDPBG",
			StstxTokenName:    "ststx-token",
			ReadSender:        "SP000000000000000000002Q6VF78",
		},
		Slippage: SlippageConfig{
			ExtraPct: 0.2,
			FloorPct: 0.5,
		},
		Fees: FeeConfig{
			MinFloorSTX:         0.001,
			Multiplier:          1.2,
			CapSTX:              0.25,
			EstimatedTxBytes:    350,
			EstimateWhenOmitted: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			PoolSize:       20,
			MaxRetries:     3,
			IdempotencyTTL: duration{24 * time.Hour},
		},
		Notify: NotifyConfig{
			Events: []string{"swap_submitted", "swap_failed", "swap_confirmed", "swap_aborted"},
		},
		Reconcile: ReconcileConfig{
			Enabled:   true,
			Interval:  duration{30 * time.Second},
			MinTxAge:  duration{15 * time.Second},
			BatchSize: 20,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validNetworks enumerates the accepted values for Signer.Network.
var validNetworks = map[string]bool{
	"mainnet": true,
	"testnet": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found. An absent
// signing key is deliberately not an error here: the relay starts without
// one and fails each broadcast request with missing_signer_private_key,
// matching the original behavior.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RequestTimeout.Duration <= 0 {
		errs = append(errs, "server: request_timeout must be positive")
	}

	if c.Hiro.APIBase == "" {
		errs = append(errs, "hiro: api_base must not be empty")
	}
	if c.Coingecko.APIBase == "" {
		errs = append(errs, "coingecko: api_base must not be empty")
	}
	if c.Coingecko.StxCoinID == "" || c.Coingecko.StstxCoinID == "" {
		errs = append(errs, "coingecko: both coin ids must be set")
	}

	if !validNetworks[strings.ToLower(c.Signer.Network)] {
		errs = append(errs, fmt.Sprintf("signer: unknown network %q (valid: mainnet, testnet)", c.Signer.Network))
	}

	for _, f := range []struct{ name, value string }{
		{"deployer_address", c.Swap.DeployerAddress},
		{"helper_contract", c.Swap.HelperContract},
		{"helper_function", c.Swap.HelperFunction},
		{"quote_function", c.Swap.QuoteFunction},
		{"pool_address", c.Swap.PoolAddress},
		{"pool_name", c.Swap.PoolName},
		{"stx_token_address", c.Swap.StxTokenAddress},
		{"stx_token_name", c.Swap.StxTokenName},
		{"ststx_token_address", c.Swap.StstxTokenAddress},
		{"ststx_token_name", c.Swap.StstxTokenName},
		{"read_sender", c.Swap.ReadSender},
	} {
		if f.value == "" {
			errs = append(errs, "swap: "+f.name+" must not be empty")
		}
	}

	if c.Slippage.ExtraPct < 0 {
		errs = append(errs, "slippage: extra_pct must be >= 0")
	}
	if c.Slippage.FloorPct < 0 {
		errs = append(errs, "slippage: floor_pct must be >= 0")
	}

	if c.Fees.MinFloorSTX <= 0 {
		errs = append(errs, "fees: min_floor_stx must be > 0")
	}
	if c.Fees.Multiplier < 1.0 {
		errs = append(errs, "fees: multiplier must be >= 1.0")
	}
	if c.Fees.CapSTX <= 0 {
		errs = append(errs, "fees: cap_stx must be > 0")
	}
	if c.Fees.EstimatedTxBytes <= 0 {
		errs = append(errs, "fees: estimated_tx_bytes must be > 0")
	}

	if c.Risk.MaxOrderUSD < 0 {
		errs = append(errs, "risk: max_order_usd must be >= 0")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.IdempotencyTTL.Duration <= 0 {
			errs = append(errs, "redis: idempotency_ttl must be positive")
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if c.Reconcile.Enabled {
		if c.Reconcile.Interval.Duration <= 0 {
			errs = append(errs, "reconcile: interval must be positive")
		}
		if c.Reconcile.BatchSize < 1 {
			errs = append(errs, "reconcile: batch_size must be >= 1")
		}
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
