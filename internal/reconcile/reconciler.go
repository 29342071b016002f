// Package reconcile settles submitted ledger rows against the chain. The
// relay itself never retries a broadcast; this poller only records what
// actually happened to transactions the relay already sent.
package reconcile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/platform/hiro"
)

// ChainReader is the read side of the chain the reconciler needs.
type ChainReader interface {
	GetTransaction(ctx context.Context, txid string) (hiro.TransactionStatus, error)
}

// Notifier pushes operator alerts for settled rows.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config drives the polling loop.
type Config struct {
	Interval  time.Duration
	MinTxAge  time.Duration // rows younger than this are skipped so the API has time to index
	BatchSize int
}

// Reconciler polls submitted swap records and marks them confirmed or
// aborted once the chain reports a terminal status.
type Reconciler struct {
	cfg      Config
	store    domain.SwapStore
	chain    ChainReader
	notifier Notifier // optional
	logger   *slog.Logger
}

// New creates a Reconciler. notifier may be nil.
func New(cfg Config, store domain.SwapStore, chain ChainReader, notifier Notifier, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		cfg:      cfg,
		store:    store,
		chain:    chain,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "reconciler")),
	}
}

// Run polls until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("reconciler started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Int("batch_size", r.cfg.BatchSize),
	)
	defer r.logger.Info("reconciler stopped")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.WarnContext(ctx, "sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep settles one batch of submitted rows. Rows whose transactions are
// still pending or not yet indexed are left for the next sweep.
func (r *Reconciler) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-r.cfg.MinTxAge)
	recs, err := r.store.ListSubmittedBefore(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		if rec.TxID == "" {
			continue
		}
		if err := r.settle(ctx, rec); err != nil {
			r.logger.WarnContext(ctx, "settle failed",
				slog.String("id", rec.ID),
				slog.String("txid", rec.TxID),
				slog.String("error", err.Error()),
			)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (r *Reconciler) settle(ctx context.Context, rec domain.SwapRecord) error {
	status, err := r.chain.GetTransaction(ctx, rec.TxID)
	if err != nil {
		// Not yet indexed; try again next sweep.
		if strings.HasPrefix(err.Error(), "http_404:") {
			return nil
		}
		return err
	}
	if !status.Terminal() {
		return nil
	}

	outcome := domain.SwapStatusAborted
	event, title := "swap_aborted", "Swap aborted"
	if status.Succeeded() {
		outcome = domain.SwapStatusConfirmed
		event, title = "swap_confirmed", "Swap confirmed"
	}

	if err := r.store.MarkOutcome(ctx, rec.ID, outcome, status.TxStatus); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "swap settled",
		slog.String("id", rec.ID),
		slog.String("txid", rec.TxID),
		slog.String("tx_status", status.TxStatus),
	)

	if r.notifier != nil {
		msg := "txid=" + rec.TxID + " tx_status=" + status.TxStatus
		if err := r.notifier.Notify(ctx, event, title, msg); err != nil {
			r.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
	return nil
}
