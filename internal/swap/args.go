package swap

import (
	"fmt"

	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/stacks"
)

// tokenTupleCV builds the {a: <input token>, b: <output token>} tuple the
// helper contract dispatches on. Buying stSTX puts the STX token in slot a;
// selling reverses the slots.
func tokenTupleCV(cfg config.SwapConfig, action domain.Action) ([]byte, error) {
	var aAddr, aName, bAddr, bName string
	switch action {
	case domain.ActionBuyStSTX:
		aAddr, aName = cfg.StxTokenAddress, cfg.StxTokenName
		bAddr, bName = cfg.StstxTokenAddress, cfg.StstxTokenName
	case domain.ActionSellStSTX:
		aAddr, aName = cfg.StstxTokenAddress, cfg.StstxTokenName
		bAddr, bName = cfg.StxTokenAddress, cfg.StxTokenName
	default:
		return nil, domain.PipelineErrf(domain.ReasonUnsupportedAction, nil)
	}

	a, err := stacks.ContractPrincipalCV(aAddr, aName)
	if err != nil {
		return nil, fmt.Errorf("swap: token tuple slot a: %w", err)
	}
	b, err := stacks.ContractPrincipalCV(bAddr, bName)
	if err != nil {
		return nil, fmt.Errorf("swap: token tuple slot b: %w", err)
	}
	return stacks.TupleCV(
		stacks.TupleEntry{Name: "a", Value: a},
		stacks.TupleEntry{Name: "b", Value: b},
	)
}

// poolTupleCV builds the single-entry {a: <pool contract>} tuple.
func poolTupleCV(cfg config.SwapConfig) ([]byte, error) {
	pool, err := stacks.ContractPrincipalCV(cfg.PoolAddress, cfg.PoolName)
	if err != nil {
		return nil, fmt.Errorf("swap: pool tuple: %w", err)
	}
	return stacks.TupleCV(stacks.TupleEntry{Name: "a", Value: pool})
}
