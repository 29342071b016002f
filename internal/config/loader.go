package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path (skipped when path is
// empty, so the relay can run from environment variables alone), merges it
// on top of the built-in defaults, applies STSTX_SIGNER_* environment
// variable overrides, and returns the final Config. The returned Config
// has NOT been validated; the caller should invoke Config.Validate().
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STSTX_SIGNER_* environment variables
// and overwrites the corresponding Config fields when a variable is set.
// The SIGNER_* names the original relay used are kept as compatibility
// aliases so existing deployments keep working.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "STSTX_SIGNER_PORT")
	setInt(&cfg.Server.Port, "SIGNER_PORT") // compatibility alias
	setStr(&cfg.Server.AuthToken, "STSTX_SIGNER_AUTH_TOKEN")
	setStr(&cfg.Server.AuthToken, "SIGNER_API_TOKEN") // compatibility alias
	setDuration(&cfg.Server.RequestTimeout, "STSTX_SIGNER_REQUEST_TIMEOUT")

	// ── Hiro ──
	setStr(&cfg.Hiro.APIBase, "STSTX_SIGNER_HIRO_API_BASE")
	setStr(&cfg.Hiro.APIBase, "SIGNER_HIRO_API_BASE") // compatibility alias
	setDuration(&cfg.Hiro.Timeout, "STSTX_SIGNER_HIRO_TIMEOUT")

	// ── Coingecko ──
	setStr(&cfg.Coingecko.APIBase, "STSTX_SIGNER_COINGECKO_API_BASE")
	setStr(&cfg.Coingecko.StxCoinID, "STSTX_SIGNER_STX_COIN_ID")
	setStr(&cfg.Coingecko.StstxCoinID, "STSTX_SIGNER_STSTX_COIN_ID")

	// ── Signer ──
	setStr(&cfg.Signer.PrivateKey, "STSTX_SIGNER_PRIVATE_KEY")
	setStr(&cfg.Signer.PrivateKey, "SIGNER_PRIVATE_KEY") // compatibility alias
	setStr(&cfg.Signer.Network, "STSTX_SIGNER_NETWORK")

	// ── Slippage / fees / risk ──
	setFloat64(&cfg.Slippage.ExtraPct, "STSTX_SIGNER_SLIPPAGE_EXTRA_PCT")
	setFloat64(&cfg.Slippage.FloorPct, "STSTX_SIGNER_SLIPPAGE_FLOOR_PCT")
	setFloat64(&cfg.Fees.MinFloorSTX, "STSTX_SIGNER_FEES_MIN_FLOOR_STX")
	setFloat64(&cfg.Fees.Multiplier, "STSTX_SIGNER_FEES_MULTIPLIER")
	setFloat64(&cfg.Fees.CapSTX, "STSTX_SIGNER_FEES_CAP_STX")
	setInt(&cfg.Fees.EstimatedTxBytes, "STSTX_SIGNER_FEES_ESTIMATED_TX_BYTES")
	setBool(&cfg.Fees.EstimateWhenOmitted, "STSTX_SIGNER_FEES_ESTIMATE_WHEN_OMITTED")
	setFloat64(&cfg.Risk.MaxOrderUSD, "STSTX_SIGNER_RISK_MAX_ORDER_USD")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "STSTX_SIGNER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "STSTX_SIGNER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STSTX_SIGNER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STSTX_SIGNER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STSTX_SIGNER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STSTX_SIGNER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STSTX_SIGNER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STSTX_SIGNER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STSTX_SIGNER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STSTX_SIGNER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STSTX_SIGNER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "STSTX_SIGNER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "STSTX_SIGNER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STSTX_SIGNER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STSTX_SIGNER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STSTX_SIGNER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STSTX_SIGNER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STSTX_SIGNER_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.IdempotencyTTL, "STSTX_SIGNER_REDIS_IDEMPOTENCY_TTL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STSTX_SIGNER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STSTX_SIGNER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STSTX_SIGNER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "STSTX_SIGNER_NOTIFY_EVENTS")

	// ── Reconcile ──
	setBool(&cfg.Reconcile.Enabled, "STSTX_SIGNER_RECONCILE_ENABLED")
	setDuration(&cfg.Reconcile.Interval, "STSTX_SIGNER_RECONCILE_INTERVAL")
	setDuration(&cfg.Reconcile.MinTxAge, "STSTX_SIGNER_RECONCILE_MIN_TX_AGE")
	setInt(&cfg.Reconcile.BatchSize, "STSTX_SIGNER_RECONCILE_BATCH_SIZE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "STSTX_SIGNER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
