package domain

import (
	"context"
	"time"
)

// SwapStore persists the broadcast ledger. Implementations live under
// internal/store.
type SwapStore interface {
	// Create inserts a new ledger row.
	Create(ctx context.Context, rec SwapRecord) error
	// MarkOutcome sets the terminal chain outcome of a submitted row.
	MarkOutcome(ctx context.Context, id string, status SwapRecordStatus, reason string) error
	// ListSubmittedBefore returns submitted rows created before cutoff,
	// oldest first, for the reconciler to poll.
	ListSubmittedBefore(ctx context.Context, cutoff time.Time, limit int) ([]SwapRecord, error)
}

// IdempotencyCache remembers the first response produced for a client
// idempotency key. Implementations live under internal/cache.
type IdempotencyCache interface {
	// Begin claims the key. It returns the stored response when the key
	// has already completed, ErrDuplicateRequest when the first request is
	// still in flight, or ok=false with no error when the claim is fresh.
	Begin(ctx context.Context, key string) (stored []byte, ok bool, err error)
	// Complete stores the final response body for the key.
	Complete(ctx context.Context, key string, response []byte) error
	// Abort releases a claimed key without storing a response, so a
	// failed request can be retried under the same key.
	Abort(ctx context.Context, key string) error
}
