package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateRequest = errors.New("duplicate request in flight")
)

// Machine-readable reason strings returned in the HTTP error body. Dynamic
// reasons (quote_failed, broadcast_failed) are built by the constructors
// below.
const (
	ReasonUnauthorized      = "unauthorized"
	ReasonNotFound          = "not_found"
	ReasonInvalidOrderUSD   = "invalid_order_usd"
	ReasonInvalidPriceFeed  = "invalid_price_feed"
	ReasonQuoteNonPositive  = "quote_non_positive"
	ReasonMissingSignerKey  = "missing_signer_private_key"
	ReasonUnsupportedAction = "unsupported_action"
	ReasonOrderAboveMax     = "order_above_max"
	ReasonDuplicateRequest  = "duplicate_request"
)

// PipelineError is the single error type threaded through every stage of
// the swap pipeline. Reason is the flat string the caller sees; Err is the
// optional upstream cause, preserved for logs and errors.Is/As.
type PipelineError struct {
	Reason string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// PipelineErrf creates a PipelineError with a fixed reason and an optional
// wrapped cause.
func PipelineErrf(reason string, err error) *PipelineError {
	return &PipelineError{Reason: reason, Err: err}
}

// QuoteFailed builds the quote_failed:<cause> reason for a rejected
// read-only contract call.
func QuoteFailed(cause string, err error) *PipelineError {
	if cause == "" {
		cause = "unknown"
	}
	return &PipelineError{Reason: "quote_failed:" + cause, Err: err}
}

// BroadcastFailed builds the broadcast_failed:<error>:<reason> reason for a
// rejected transaction broadcast.
func BroadcastFailed(errCode, reason string) *PipelineError {
	return &PipelineError{Reason: fmt.Sprintf("broadcast_failed:%s:%s", errCode, reason)}
}

// BroadcastUnknown is the reason used when the broadcast response has no
// recognizable shape.
func BroadcastUnknown() *PipelineError {
	return &PipelineError{Reason: "broadcast_failed:unknown:"}
}

// ReasonOf extracts the flat reason string for an arbitrary pipeline
// failure. Non-pipeline errors (JSON parse failures, transport errors) are
// surfaced verbatim.
func ReasonOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return err.Error()
}
