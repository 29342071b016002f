package swap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// Notifier pushes operator alerts. internal/notify provides the
// production implementation.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// recordTimeout bounds the post-broadcast ledger write and notification,
// which run detached from the request context so a dropped client
// connection cannot lose a broadcast record.
const recordTimeout = 5 * time.Second

// Pipeline runs one swap request end to end: validation, price
// resolution, sizing, fee, quote, slippage, sign, broadcast. Every stage
// failure aborts the request; there are no retries.
type Pipeline struct {
	resolver    *PriceResolver
	quoter      *Quoter
	sender      *Sender
	fees        *FeePolicy
	slippage    SlippagePolicy
	maxOrderUSD float64 // 0 disables the limit

	store    domain.SwapStore // optional broadcast ledger
	notifier Notifier         // optional
	logger   *slog.Logger
}

// PipelineConfig wires the pipeline's collaborators. Store and Notifier
// are optional.
type PipelineConfig struct {
	Resolver    *PriceResolver
	Quoter      *Quoter
	Sender      *Sender
	Fees        *FeePolicy
	Slippage    SlippagePolicy
	MaxOrderUSD float64
	Store       domain.SwapStore
	Notifier    Notifier
	Logger      *slog.Logger
}

// NewPipeline creates a pipeline from its collaborators.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		resolver:    cfg.Resolver,
		quoter:      cfg.Quoter,
		sender:      cfg.Sender,
		fees:        cfg.Fees,
		slippage:    cfg.Slippage,
		maxOrderUSD: cfg.MaxOrderUSD,
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger.With(slog.String("component", "pipeline")),
	}
}

// Execute runs one request through every stage and returns the broadcast
// result. The returned error carries the flat reason string via
// domain.ReasonOf.
func (p *Pipeline) Execute(ctx context.Context, req domain.SwapRequest) (domain.BroadcastResult, error) {
	if err := p.sender.Ready(); err != nil {
		return domain.BroadcastResult{}, err
	}
	if req.OrderUSD <= 0 {
		return domain.BroadcastResult{}, domain.PipelineErrf(domain.ReasonInvalidOrderUSD, nil)
	}
	if !req.Action.Valid() {
		return domain.BroadcastResult{}, domain.PipelineErrf(domain.ReasonUnsupportedAction, nil)
	}
	if p.maxOrderUSD > 0 && req.OrderUSD > p.maxOrderUSD {
		return domain.BroadcastResult{}, domain.PipelineErrf(domain.ReasonOrderAboveMax, nil)
	}

	prices, err := p.resolver.Resolve(ctx, req)
	if err != nil {
		return domain.BroadcastResult{}, err
	}

	inputMicro, err := InputMicro(req.OrderUSD, req.Action, prices)
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	feeMicro := p.fees.FeeMicro(ctx, req.FeeSTX)

	quote, err := p.quoter.QuoteOutput(ctx, req.Action, inputMicro)
	if err != nil {
		return domain.BroadcastResult{}, err
	}

	plan := domain.SwapPlan{
		Action:         req.Action,
		InputMicro:     inputMicro,
		MinOutputMicro: p.slippage.MinOutput(quote, req.SlippagePct),
		FeeMicro:       feeMicro,
	}
	p.logger.InfoContext(ctx, "swap planned",
		slog.String("action", string(plan.Action)),
		slog.Float64("order_usd", req.OrderUSD),
		slog.Uint64("input_micro", plan.InputMicro),
		slog.Uint64("quote_micro", quote),
		slog.Uint64("min_output_micro", plan.MinOutputMicro),
		slog.Uint64("fee_micro", plan.FeeMicro),
	)

	txid, err := p.sender.SignAndBroadcast(ctx, plan)
	if err != nil {
		p.record(ctx, req, plan, "", domain.SwapStatusFailed, domain.ReasonOf(err))
		return domain.BroadcastResult{}, err
	}

	p.record(ctx, req, plan, txid, domain.SwapStatusSubmitted, "broadcasted")

	feeSTX := req.FeeSTX
	if p.fees.Estimates(req.FeeSTX) {
		feeSTX = float64(plan.FeeMicro) / domain.MicroPerUnit
	}
	return domain.BroadcastResult{
		TxID:   txid,
		Status: "submitted",
		Reason: "broadcasted",
		FeeSTX: feeSTX,
	}, nil
}

// record writes the ledger row and pushes the matching notification. Both
// are best effort and detached from the request context.
func (p *Pipeline) record(ctx context.Context, req domain.SwapRequest, plan domain.SwapPlan, txid string, status domain.SwapRecordStatus, reason string) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if p.store != nil {
		now := time.Now().UTC()
		rec := domain.SwapRecord{
			ID:             uuid.NewString(),
			Action:         plan.Action,
			OrderUSD:       req.OrderUSD,
			InputMicro:     plan.InputMicro,
			MinOutputMicro: plan.MinOutputMicro,
			FeeMicro:       plan.FeeMicro,
			TxID:           txid,
			Status:         status,
			Reason:         reason,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := p.store.Create(bg, rec); err != nil {
			p.logger.ErrorContext(ctx, "ledger write failed",
				slog.String("error", err.Error()),
				slog.String("txid", txid),
			)
		}
	}

	if p.notifier != nil {
		event, title := "swap_failed", "Swap failed"
		if status == domain.SwapStatusSubmitted {
			event, title = "swap_submitted", "Swap submitted"
		}
		msg := fmt.Sprintf("action=%s order_usd=%.2f input_micro=%d fee_micro=%d", plan.Action, req.OrderUSD, plan.InputMicro, plan.FeeMicro)
		if txid != "" {
			msg += " txid=" + txid
		}
		if status != domain.SwapStatusSubmitted {
			msg += " reason=" + reason
		}
		if err := p.notifier.Notify(bg, event, title, msg); err != nil {
			p.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
}
