package swap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/stacks"
)

// ChainWriter is the write-side chain surface the sender needs.
// internal/platform/hiro provides the production implementation.
type ChainWriter interface {
	NextNonce(ctx context.Context, address string) (uint64, error)
	BroadcastTransaction(ctx context.Context, raw []byte) (string, error)
}

// Sender signs a planned swap as a contract call and pushes it to the
// chain. It holds the only reference to the signing key in the process.
type Sender struct {
	cfg    config.SwapConfig
	signer *stacks.Signer // nil when no key was configured
	chain  ChainWriter
	logger *slog.Logger
}

// NewSender creates a sender. signer may be nil; every broadcast attempt
// then fails with missing_signer_private_key.
func NewSender(cfg config.SwapConfig, signer *stacks.Signer, chain ChainWriter, logger *slog.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		signer: signer,
		chain:  chain,
		logger: logger.With(slog.String("component", "sender")),
	}
}

// Ready reports whether a signing key is available.
func (s *Sender) Ready() error {
	if s.signer == nil {
		return domain.PipelineErrf(domain.ReasonMissingSignerKey, nil)
	}
	return nil
}

// SignAndBroadcast fetches the account's next nonce, signs the swap call,
// and broadcasts it. It returns the transaction id on success.
func (s *Sender) SignAndBroadcast(ctx context.Context, plan domain.SwapPlan) (string, error) {
	if err := s.Ready(); err != nil {
		return "", err
	}

	nonce, err := s.chain.NextNonce(ctx, s.signer.Address())
	if err != nil {
		return "", fmt.Errorf("swap: fetch nonce: %w", err)
	}

	tokens, err := tokenTupleCV(s.cfg, plan.Action)
	if err != nil {
		return "", err
	}
	pool, err := poolTupleCV(s.cfg)
	if err != nil {
		return "", err
	}

	tx, err := s.signer.SignContractCall(stacks.TxOptions{
		Fee:   plan.FeeMicro,
		Nonce: nonce,
		Call: stacks.ContractCall{
			ContractAddress: s.cfg.DeployerAddress,
			ContractName:    s.cfg.HelperContract,
			FunctionName:    s.cfg.HelperFunction,
			FunctionArgs: [][]byte{
				stacks.UintCV(plan.InputMicro),
				stacks.UintCV(plan.MinOutputMicro),
				tokens,
				pool,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("swap: sign contract call: %w", err)
	}

	txid, err := s.chain.BroadcastTransaction(ctx, tx.Raw)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "transaction broadcast",
		slog.String("txid", txid),
		slog.Uint64("nonce", nonce),
		slog.Uint64("fee_micro", plan.FeeMicro),
		slog.String("action", string(plan.Action)),
	)
	return txid, nil
}
