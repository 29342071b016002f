package swap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/stacks"
)

// ReadCaller executes a read-only contract function on the chain.
// internal/platform/hiro provides the production implementation.
type ReadCaller interface {
	CallReadOnly(ctx context.Context, contractAddress, contractName, functionName, sender string, args []string) (string, error)
}

// Quoter asks the stableswap helper contract what a given input would
// currently receive.
type Quoter struct {
	cfg    config.SwapConfig
	chain  ReadCaller
	logger *slog.Logger
}

// NewQuoter creates a quoter pinned to the configured deployment.
func NewQuoter(cfg config.SwapConfig, chain ReadCaller, logger *slog.Logger) *Quoter {
	return &Quoter{
		cfg:    cfg,
		chain:  chain,
		logger: logger.With(slog.String("component", "quoter")),
	}
}

// QuoteOutput returns the quoted output in micro units for swapping
// inputMicro in the given direction. A zero quote is rejected so the
// minimum-output computation never collapses to nothing.
func (q *Quoter) QuoteOutput(ctx context.Context, action domain.Action, inputMicro uint64) (uint64, error) {
	tokens, err := tokenTupleCV(q.cfg, action)
	if err != nil {
		return 0, err
	}
	pool, err := poolTupleCV(q.cfg)
	if err != nil {
		return 0, err
	}

	args := []string{
		stacks.ToHex(stacks.UintCV(inputMicro)),
		stacks.ToHex(tokens),
		stacks.ToHex(pool),
	}
	result, err := q.chain.CallReadOnly(ctx, q.cfg.DeployerAddress, q.cfg.HelperContract, q.cfg.QuoteFunction, q.cfg.ReadSender, args)
	if err != nil {
		return 0, err
	}

	out, err := stacks.DeserializeUint(result)
	if err != nil {
		return 0, fmt.Errorf("swap: decode quote result: %w", err)
	}
	if out == 0 {
		return 0, domain.PipelineErrf(domain.ReasonQuoteNonPositive, nil)
	}

	q.logger.DebugContext(ctx, "quote fetched",
		slog.String("action", string(action)),
		slog.Uint64("input_micro", inputMicro),
		slog.Uint64("quote_micro", out),
	)
	return out, nil
}
