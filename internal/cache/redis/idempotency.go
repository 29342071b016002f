package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// pendingMarker is the value a key holds while its first request is still
// running. Stored responses are JSON objects, so the marker can never
// collide with one.
const pendingMarker = "pending"

// abortLua deletes the claim only while it is still pending, so a late
// abort cannot wipe out a response another request already stored.
const abortLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// IdempotencyCache implements domain.IdempotencyCache on Redis. The claim
// and the stored response share one key: SETNX claims it with a pending
// marker, Complete overwrites the marker with the response body.
type IdempotencyCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	abortSc *redis.Script
}

// NewIdempotencyCache creates the cache. Keys expire after ttl whether or
// not a response was stored.
func NewIdempotencyCache(c *Client, ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		rdb:     c.Underlying(),
		ttl:     ttl,
		abortSc: redis.NewScript(abortLua),
	}
}

func idemKey(key string) string {
	return "idem:" + key
}

// Begin claims the key. It returns the stored response when the key has
// already completed, domain.ErrDuplicateRequest when the first request is
// still in flight, or ok=false with no error when the claim is fresh.
func (ic *IdempotencyCache) Begin(ctx context.Context, key string) ([]byte, bool, error) {
	k := idemKey(key)

	set, err := ic.rdb.SetNX(ctx, k, pendingMarker, ic.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis: claim idempotency key %s: %w", key, err)
	}
	if set {
		return nil, false, nil
	}

	val, err := ic.rdb.Get(ctx, k).Result()
	if err == redis.Nil {
		// The previous holder expired or aborted between SETNX and GET;
		// treat it as in flight and let the caller retry.
		return nil, false, domain.ErrDuplicateRequest
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: read idempotency key %s: %w", key, err)
	}
	if val == pendingMarker {
		return nil, false, domain.ErrDuplicateRequest
	}
	return []byte(val), true, nil
}

// Complete stores the final response body for the key with a fresh TTL.
func (ic *IdempotencyCache) Complete(ctx context.Context, key string, response []byte) error {
	if err := ic.rdb.Set(ctx, idemKey(key), response, ic.ttl).Err(); err != nil {
		return fmt.Errorf("redis: store idempotency response %s: %w", key, err)
	}
	return nil
}

// Abort releases a pending claim so the caller can retry under the same
// key.
func (ic *IdempotencyCache) Abort(ctx context.Context, key string) error {
	if err := ic.abortSc.Run(ctx, ic.rdb, []string{idemKey(key)}, pendingMarker).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis: release idempotency key %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.IdempotencyCache = (*IdempotencyCache)(nil)
