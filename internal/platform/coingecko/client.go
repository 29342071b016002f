// Package coingecko fetches USD spot prices for the swap pair from the
// CoinGecko simple-price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// Client queries the CoinGecko API, e.g. "https://api.coingecko.com/api/v3".
type Client struct {
	baseURL     string
	stxCoinID   string
	ststxCoinID string
	httpClient  *http.Client
}

// NewClient creates a price-feed client. The coin ids are the CoinGecko
// identifiers of the two swap-side assets ("blockstack", "stacking-dao").
func NewClient(baseURL, stxCoinID, ststxCoinID string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		stxCoinID:   stxCoinID,
		ststxCoinID: ststxCoinID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchPrices returns the current USD prices for both assets. A missing or
// non-positive price is a hard invalid_price_feed failure; there is no
// caching and no retry.
func (c *Client) FetchPrices(ctx context.Context) (domain.PricePair, error) {
	params := url.Values{}
	params.Set("ids", c.stxCoinID+","+c.ststxCoinID)
	params.Set("vs_currencies", "usd")

	reqURL := c.baseURL + "/simple/price?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.PricePair{}, fmt.Errorf("coingecko: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PricePair{}, fmt.Errorf("coingecko: fetch prices: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return domain.PricePair{}, fmt.Errorf("coingecko: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.PricePair{}, fmt.Errorf("http_%d:%s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed map[string]map[string]float64
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.PricePair{}, fmt.Errorf("coingecko: decode response: %w", err)
	}

	prices := domain.PricePair{
		StxUSD:   parsed[c.stxCoinID]["usd"],
		StstxUSD: parsed[c.ststxCoinID]["usd"],
	}
	if prices.StxUSD <= 0 || prices.StstxUSD <= 0 {
		return domain.PricePair{}, domain.PipelineErrf(domain.ReasonInvalidPriceFeed, nil)
	}
	return prices, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
