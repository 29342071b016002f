// Package hiro is the REST client for the Hiro Stacks API: read-only
// contract calls, transaction broadcast, nonce lookup, fee rates, and
// transaction status.
package hiro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// Client talks to a Hiro API node, e.g. "https://api.hiro.so".
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Hiro API client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CallReadOnly issues a read-only contract call and returns the raw
// hex-encoded Clarity result. A response with okay=false fails with the
// quote_failed reason carrying the upstream cause.
func (c *Client) CallReadOnly(ctx context.Context, contractAddress, contractName, functionName, sender string, args []string) (string, error) {
	path := fmt.Sprintf("/v2/contracts/call-read/%s/%s/%s",
		url.PathEscape(contractAddress), url.PathEscape(contractName), url.PathEscape(functionName))

	reqBody, err := json.Marshal(callReadRequest{Sender: sender, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("hiro: marshal call-read request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, path, "application/json", reqBody)
	if err != nil {
		return "", err
	}

	var resp callReadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("hiro: decode call-read response: %w", err)
	}
	if !resp.Okay {
		return "", domain.QuoteFailed(resp.Cause, nil)
	}
	return resp.Result, nil
}

// BroadcastTransaction submits a serialized transaction to the node and
// returns its transaction id. The node answers either with a bare txid
// string or an object; an object carrying an error field is a hard
// failure, anything unrecognizable is broadcast_failed:unknown:.
func (c *Client) BroadcastTransaction(ctx context.Context, raw []byte) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/v2/transactions", "application/octet-stream", raw)
	if err != nil {
		return "", err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", domain.BroadcastUnknown()
	}

	switch resp := v.(type) {
	case string:
		return resp, nil
	case map[string]any:
		if errVal, ok := resp["error"]; ok && errVal != nil {
			reason := stringField(resp, "reason")
			if reason == "" {
				reason = stringField(resp, "message")
			}
			return "", domain.BroadcastFailed(fmt.Sprint(errVal), reason)
		}
		if txid := stringField(resp, "txid"); txid != "" {
			return txid, nil
		}
	}
	return "", domain.BroadcastUnknown()
}

// NextNonce returns the next usable nonce for an account, taking mempool
// transactions into account.
func (c *Client) NextNonce(ctx context.Context, address string) (uint64, error) {
	path := fmt.Sprintf("/extended/v1/address/%s/nonces", url.PathEscape(address))
	body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return 0, err
	}

	var resp nonceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("hiro: decode nonces response: %w", err)
	}
	return resp.PossibleNextNonce, nil
}

// TransferFeeRate returns the current fee rate in micro-STX per byte. The
// endpoint answers with a bare number.
func (c *Client) TransferFeeRate(ctx context.Context) (float64, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v2/fees/transfer", "", nil)
	if err != nil {
		return 0, err
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, fmt.Errorf("hiro: parse fee rate %q: %w", strings.TrimSpace(string(body)), err)
	}
	return rate, nil
}

// GetTransaction fetches the extended status of a transaction by id.
func (c *Client) GetTransaction(ctx context.Context, txid string) (TransactionStatus, error) {
	txid = strings.TrimPrefix(strings.TrimSpace(txid), "0x")
	path := fmt.Sprintf("/extended/v1/tx/0x%s", url.PathEscape(txid))

	body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return TransactionStatus{}, err
	}

	var resp TransactionStatus
	if err := json.Unmarshal(body, &resp); err != nil {
		return TransactionStatus{}, fmt.Errorf("hiro: decode tx response: %w", err)
	}
	return resp, nil
}

// doRequest performs an HTTP request against the API base. Non-2xx
// responses become http_<status>:<body> errors surfaced verbatim to the
// caller, truncated like the original relay did.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("hiro: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hiro: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("hiro: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Broadcast rejections arrive as non-2xx JSON objects; let the
		// caller interpret the shape before falling back to a transport
		// error.
		if method == http.MethodPost && path == "/v2/transactions" && looksLikeJSONObject(respBody) {
			return respBody, nil
		}
		return nil, fmt.Errorf("http_%d:%s", resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

func looksLikeJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}
