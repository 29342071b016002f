package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/ststx-signer/internal/cache/redis"
	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/notify"
	"github.com/alanyoungcy/ststx-signer/internal/platform/coingecko"
	"github.com/alanyoungcy/ststx-signer/internal/platform/hiro"
	"github.com/alanyoungcy/ststx-signer/internal/reconcile"
	"github.com/alanyoungcy/ststx-signer/internal/stacks"
	"github.com/alanyoungcy/ststx-signer/internal/store/postgres"
	"github.com/alanyoungcy/ststx-signer/internal/swap"
)

// Dependencies bundles everything the relay needs at runtime. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Pipeline   *swap.Pipeline
	IdemCache  domain.IdempotencyCache // nil when redis is disabled
	Reconciler *reconcile.Reconciler   // nil when the ledger or reconciler is disabled
	Notifier   *notify.Notifier
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function to be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL broadcast ledger (optional) ---
	var swapStore domain.SwapStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		swapStore = postgres.NewSwapStore(pgClient.Pool())
	}

	// --- Redis idempotency cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.IdemCache = redis.NewIdempotencyCache(redisClient, cfg.Redis.IdempotencyTTL.Duration)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Platform clients ---
	chain := hiro.NewClient(cfg.Hiro.APIBase, cfg.Hiro.Timeout.Duration)
	prices := coingecko.NewClient(cfg.Coingecko.APIBase, cfg.Coingecko.StxCoinID, cfg.Coingecko.StstxCoinID)

	// --- Signer ---
	network := stacks.Mainnet
	if strings.EqualFold(cfg.Signer.Network, "testnet") {
		network = stacks.Testnet
	}
	var signer *stacks.Signer
	if key := stacks.NormalizePrivateKey(cfg.Signer.PrivateKey); key != "" {
		var err error
		signer, err = stacks.NewSigner(key, network)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		logger.Info("signer loaded", slog.String("address", signer.Address()))
	} else {
		// The relay still serves; every broadcast request will fail with
		// missing_signer_private_key.
		logger.Warn("no signing key configured")
	}

	// --- Swap pipeline ---
	var estimator swap.FeeEstimator
	if cfg.Fees.EstimateWhenOmitted {
		estimator = chain
	}
	deps.Pipeline = swap.NewPipeline(swap.PipelineConfig{
		Resolver:    swap.NewPriceResolver(prices),
		Quoter:      swap.NewQuoter(cfg.Swap, chain, logger),
		Sender:      swap.NewSender(cfg.Swap, signer, chain, logger),
		Fees:        swap.NewFeePolicy(cfg.Fees, estimator, logger),
		Slippage:    swap.SlippagePolicy{ExtraPct: cfg.Slippage.ExtraPct, FloorPct: cfg.Slippage.FloorPct},
		MaxOrderUSD: cfg.Risk.MaxOrderUSD,
		Store:       swapStore,
		Notifier:    deps.Notifier,
		Logger:      logger,
	})

	// --- Reconciler (needs the ledger) ---
	if cfg.Reconcile.Enabled && swapStore != nil {
		deps.Reconciler = reconcile.New(reconcile.Config{
			Interval:  cfg.Reconcile.Interval.Duration,
			MinTxAge:  cfg.Reconcile.MinTxAge.Duration,
			BatchSize: cfg.Reconcile.BatchSize,
		}, swapStore, chain, deps.Notifier, logger)
	}

	return deps, cleanup, nil
}
