// Package swap implements the sign-and-broadcast pipeline: price
// resolution, sizing, slippage policy, the on-chain quote, transaction
// signing, and broadcast.
package swap

import (
	"context"
	"math"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// PriceFeed fetches current USD prices for both sides of the pair.
// internal/platform/coingecko provides the production implementation.
type PriceFeed interface {
	FetchPrices(ctx context.Context) (domain.PricePair, error)
}

// priceSource is the resolved origin of a request's prices: either both
// overrides from the request body, or a remote feed lookup. Partial
// overrides fall through to the feed.
type priceSource interface {
	resolve(ctx context.Context) (domain.PricePair, error)
}

type givenPrices domain.PricePair

func (g givenPrices) resolve(context.Context) (domain.PricePair, error) {
	return domain.PricePair(g), nil
}

type feedPrices struct {
	feed PriceFeed
}

func (f feedPrices) resolve(ctx context.Context) (domain.PricePair, error) {
	return f.feed.FetchPrices(ctx)
}

// PriceResolver picks between caller-supplied price overrides and the
// remote feed. The feed is only contacted when the overrides are absent or
// incomplete.
type PriceResolver struct {
	feed PriceFeed
}

// NewPriceResolver creates a resolver backed by the given feed.
func NewPriceResolver(feed PriceFeed) *PriceResolver {
	return &PriceResolver{feed: feed}
}

// Resolve returns the prices to use for one request.
func (r *PriceResolver) Resolve(ctx context.Context, req domain.SwapRequest) (domain.PricePair, error) {
	return r.sourceFor(req).resolve(ctx)
}

func (r *PriceResolver) sourceFor(req domain.SwapRequest) priceSource {
	if req.StxUSD > 0 && req.StstxUSD > 0 {
		return givenPrices{StxUSD: req.StxUSD, StstxUSD: req.StstxUSD}
	}
	return feedPrices{feed: r.feed}
}

// InputMicro sizes the swap input in micro units from a USD notional. The
// input token's own price is used for the conversion: STX when buying
// stSTX, stSTX when selling it. The result is floored and never below 1.
func InputMicro(orderUSD float64, action domain.Action, prices domain.PricePair) (uint64, error) {
	var sideUSD float64
	switch action {
	case domain.ActionBuyStSTX:
		sideUSD = prices.StxUSD
	case domain.ActionSellStSTX:
		sideUSD = prices.StstxUSD
	default:
		return 0, domain.PipelineErrf(domain.ReasonUnsupportedAction, nil)
	}

	units := orderUSD / sideUSD
	micro := math.Floor(units * domain.MicroPerUnit)
	if micro < 1 {
		return 1, nil
	}
	return uint64(micro), nil
}
