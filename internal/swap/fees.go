package swap

import (
	"context"
	"log/slog"
	"math"

	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// FeeEstimator exposes the node's flat transfer fee rate in micro-STX per
// byte. internal/platform/hiro provides the production implementation.
type FeeEstimator interface {
	TransferFeeRate(ctx context.Context) (float64, error)
}

// FeePolicy converts the caller's fee into micro-STX. A caller-supplied
// fee is used as-is. An omitted fee pays the 1 micro-STX minimum unless
// EstimateWhenOmitted is on, in which case the node's rate is floored,
// multiplied for headroom, and capped.
type FeePolicy struct {
	cfg       config.FeeConfig
	estimator FeeEstimator
	logger    *slog.Logger
}

// NewFeePolicy creates the policy. estimator may be nil when estimation is
// disabled.
func NewFeePolicy(cfg config.FeeConfig, estimator FeeEstimator, logger *slog.Logger) *FeePolicy {
	return &FeePolicy{
		cfg:       cfg,
		estimator: estimator,
		logger:    logger.With(slog.String("component", "fee_policy")),
	}
}

// Estimates reports whether FeeMicro would consult the node's fee rate
// for this requested fee instead of using it verbatim.
func (p *FeePolicy) Estimates(requestedSTX float64) bool {
	return requestedSTX <= 0 && p.cfg.EstimateWhenOmitted && p.estimator != nil
}

// FeeMicro returns the fee the transaction will carry, never below 1.
func (p *FeePolicy) FeeMicro(ctx context.Context, requestedSTX float64) uint64 {
	if requestedSTX <= 0 && p.cfg.EstimateWhenOmitted && p.estimator != nil {
		return p.estimateMicro(ctx)
	}
	return clampMicro(requestedSTX)
}

func (p *FeePolicy) estimateMicro(ctx context.Context) uint64 {
	rate, err := p.estimator.TransferFeeRate(ctx)
	if err != nil {
		// A fee-rate outage must not block broadcasts; pay the floor.
		p.logger.Warn("fee estimate failed, using floor",
			slog.String("error", err.Error()),
			slog.Float64("floor_stx", p.cfg.MinFloorSTX),
		)
		return clampMicro(p.cfg.MinFloorSTX)
	}

	estimateSTX := rate * float64(p.cfg.EstimatedTxBytes) / domain.MicroPerUnit
	feeSTX := math.Max(estimateSTX, p.cfg.MinFloorSTX) * p.cfg.Multiplier
	feeSTX = math.Min(feeSTX, p.cfg.CapSTX)
	return clampMicro(feeSTX)
}

func clampMicro(stx float64) uint64 {
	micro := math.Floor(stx * domain.MicroPerUnit)
	if micro < 1 {
		return 1
	}
	return uint64(micro)
}
