// Package domain defines the core types shared across the signer relay:
// swap requests, resolved prices, swap plans, broadcast results, and the
// store/cache interfaces their persistence goes through.
package domain

import "time"

// MicroPerUnit is the number of smallest-unit (micro) tokens per whole
// STX or stSTX. All on-chain amounts are integers at this denomination.
const MicroPerUnit = 1_000_000

// Action identifies the swap direction for the STX/stSTX pair.
type Action string

const (
	// ActionBuyStSTX sells STX into the pool and receives stSTX.
	ActionBuyStSTX Action = "BUY_STSTX"
	// ActionSellStSTX sells stSTX into the pool and receives STX.
	ActionSellStSTX Action = "SELL_STSTX"
)

// Valid reports whether a is one of the two supported swap directions.
func (a Action) Valid() bool {
	return a == ActionBuyStSTX || a == ActionSellStSTX
}

// SwapRequest is the parsed body of a sign-and-broadcast call. It is
// immutable once parsed and discarded after the response is written.
type SwapRequest struct {
	Action      Action  `json:"action"`
	OrderUSD    float64 `json:"order_usd"`
	FeeSTX      float64 `json:"fee_stx"`
	SlippagePct float64 `json:"slippage_pct"`

	// Optional price overrides. When both are strictly positive the
	// remote price feed is skipped entirely.
	StxUSD   float64 `json:"stx_usd"`
	StstxUSD float64 `json:"ststx_usd"`
}

// PricePair holds the USD prices for both sides of the pair. Never cached
// across requests.
type PricePair struct {
	StxUSD   float64
	StstxUSD float64
}

// SwapPlan is the fully-determined input to the transaction builder.
// Every field is strictly positive by the time a plan exists.
type SwapPlan struct {
	Action         Action
	InputMicro     uint64
	MinOutputMicro uint64
	FeeMicro       uint64
}

// BroadcastResult is the terminal artifact of a successful pipeline run.
// FeeSTX is the fee the transaction actually carries, in whole STX, echoed
// back to the caller.
type BroadcastResult struct {
	TxID   string
	Status string // "submitted"
	Reason string // "broadcasted"
	FeeSTX float64
}

// SwapRecordStatus tracks a ledger row through its lifecycle.
type SwapRecordStatus string

const (
	SwapStatusSubmitted SwapRecordStatus = "submitted"
	SwapStatusFailed    SwapRecordStatus = "failed"
	SwapStatusConfirmed SwapRecordStatus = "confirmed"
	SwapStatusAborted   SwapRecordStatus = "aborted"
)

// SwapRecord is one row of the optional broadcast ledger. The relay itself
// never reads it back during a request; it exists so that a broadcast whose
// HTTP response was lost is still durably visible to operators and to the
// reconciler.
type SwapRecord struct {
	ID             string
	Action         Action
	OrderUSD       float64
	InputMicro     uint64
	MinOutputMicro uint64
	FeeMicro       uint64
	TxID           string
	Status         SwapRecordStatus
	Reason         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
