package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

type fakeFeed struct {
	pair  domain.PricePair
	err   error
	calls int
}

func (f *fakeFeed) FetchPrices(ctx context.Context) (domain.PricePair, error) {
	f.calls++
	return f.pair, f.err
}

func TestPriceResolverUsesOverrides(t *testing.T) {
	feed := &fakeFeed{err: errors.New("should not be called")}
	resolver := NewPriceResolver(feed)

	got, err := resolver.Resolve(context.Background(), domain.SwapRequest{StxUSD: 1.5, StstxUSD: 1.6})
	require.NoError(t, err)
	assert.Equal(t, domain.PricePair{StxUSD: 1.5, StstxUSD: 1.6}, got)
	assert.Zero(t, feed.calls)
}

func TestPriceResolverFallsBackToFeed(t *testing.T) {
	feed := &fakeFeed{pair: domain.PricePair{StxUSD: 2.0, StstxUSD: 2.2}}
	resolver := NewPriceResolver(feed)

	tests := []struct {
		name string
		req  domain.SwapRequest
	}{
		{"no overrides", domain.SwapRequest{}},
		{"only stx override", domain.SwapRequest{StxUSD: 1.5}},
		{"only ststx override", domain.SwapRequest{StstxUSD: 1.6}},
		{"negative override", domain.SwapRequest{StxUSD: -1, StstxUSD: 1.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, feed.pair, got)
		})
	}
	assert.Equal(t, len(tests), feed.calls)
}

func TestPriceResolverFeedError(t *testing.T) {
	feedErr := domain.PipelineErrf(domain.ReasonInvalidPriceFeed, nil)
	resolver := NewPriceResolver(&fakeFeed{err: feedErr})

	_, err := resolver.Resolve(context.Background(), domain.SwapRequest{})
	assert.Equal(t, domain.ReasonInvalidPriceFeed, domain.ReasonOf(err))
}

func TestInputMicro(t *testing.T) {
	prices := domain.PricePair{StxUSD: 1.0, StstxUSD: 2.0}

	tests := []struct {
		name     string
		orderUSD float64
		action   domain.Action
		want     uint64
	}{
		{"buy prices with stx", 100, domain.ActionBuyStSTX, 100_000_000},
		{"sell prices with ststx", 100, domain.ActionSellStSTX, 50_000_000},
		{"dust order clamps to one", 0.0000001, domain.ActionBuyStSTX, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InputMicro(tt.orderUSD, tt.action, prices)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInputMicroUnsupportedAction(t *testing.T) {
	_, err := InputMicro(100, domain.Action("SHORT_STSTX"), domain.PricePair{StxUSD: 1, StstxUSD: 1})
	assert.Equal(t, domain.ReasonUnsupportedAction, domain.ReasonOf(err))
}
