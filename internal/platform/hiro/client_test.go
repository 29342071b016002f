package hiro

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestCallReadOnly(t *testing.T) {
	t.Run("okay result", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/contracts/call-read/SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR/helper/get-quote-a", r.URL.Path)

			var req map[string]any
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "SP000000000000000000002Q6VF78", req["sender"])

			json.NewEncoder(w).Encode(map[string]any{
				"okay":   true,
				"result": "0x070100000000000000000000000000989680",
			})
		})

		result, err := c.CallReadOnly(context.Background(), "SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR", "helper", "get-quote-a", "SP000000000000000000002Q6VF78", []string{"0x01"})
		require.NoError(t, err)
		assert.Equal(t, "0x070100000000000000000000000000989680", result)
	})

	t.Run("contract rejects the call", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"okay":  false,
				"cause": "err u1001",
			})
		})

		_, err := c.CallReadOnly(context.Background(), "A", "b", "c", "S", nil)
		require.Error(t, err)
		assert.Equal(t, "quote_failed:err u1001", domain.ReasonOf(err))
	})

	t.Run("rejection without cause", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"okay": false})
		})

		_, err := c.CallReadOnly(context.Background(), "A", "b", "c", "S", nil)
		require.Error(t, err)
		assert.Equal(t, "quote_failed:unknown", domain.ReasonOf(err))
	})

	t.Run("transport failure is surfaced verbatim", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream busy", http.StatusBadGateway)
		})

		_, err := c.CallReadOnly(context.Background(), "A", "b", "c", "S", nil)
		require.Error(t, err)
		assert.Equal(t, "http_502:upstream busy\n", err.Error())
	})
}

func TestBroadcastTransaction(t *testing.T) {
	t.Run("bare string txid", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/transactions", r.URL.Path)
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			w.Write([]byte(`"abc123"`))
		})

		txid, err := c.BroadcastTransaction(context.Background(), []byte{0x00})
		require.NoError(t, err)
		assert.Equal(t, "abc123", txid)
	})

	t.Run("object with txid", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"txid":"abc123"}`))
		})

		txid, err := c.BroadcastTransaction(context.Background(), []byte{0x00})
		require.NoError(t, err)
		assert.Equal(t, "abc123", txid)
	})

	t.Run("node rejection with reason", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"transaction rejected","reason":"ConflictingNonceInMempool"}`))
		})

		_, err := c.BroadcastTransaction(context.Background(), []byte{0x00})
		require.Error(t, err)
		assert.Equal(t, "broadcast_failed:transaction rejected:ConflictingNonceInMempool", domain.ReasonOf(err))
	})

	t.Run("node rejection with message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"rejected","message":"fee too low"}`))
		})

		_, err := c.BroadcastTransaction(context.Background(), []byte{0x00})
		require.Error(t, err)
		assert.Equal(t, "broadcast_failed:rejected:fee too low", domain.ReasonOf(err))
	})

	t.Run("unrecognized response shape", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"something":"else"}`))
		})

		_, err := c.BroadcastTransaction(context.Background(), []byte{0x00})
		require.Error(t, err)
		assert.Equal(t, "broadcast_failed:unknown:", domain.ReasonOf(err))
	})

	t.Run("non-json error body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		})

		_, err := c.BroadcastTransaction(context.Background(), []byte{0x00})
		require.Error(t, err)
		assert.Equal(t, "http_503:service unavailable\n", err.Error())
	})
}

func TestNextNonce(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extended/v1/address/SP000000000000000000002Q6VF78/nonces", r.URL.Path)
		w.Write([]byte(`{"possible_next_nonce":42,"last_executed_tx_nonce":41}`))
	})

	nonce, err := c.NextNonce(context.Background(), "SP000000000000000000002Q6VF78")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), nonce)
}

func TestTransferFeeRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/fees/transfer", r.URL.Path)
		w.Write([]byte("1\n"))
	})

	rate, err := c.TransferFeeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestGetTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extended/v1/tx/0xabc123", r.URL.Path)
		w.Write([]byte(`{"tx_id":"0xabc123","tx_status":"success","fee_rate":"3000"}`))
	})

	// The 0x prefix is normalized either way.
	for _, txid := range []string{"abc123", "0xabc123"} {
		status, err := c.GetTransaction(context.Background(), txid)
		require.NoError(t, err)
		assert.Equal(t, "success", status.TxStatus)
		assert.True(t, status.Terminal())
		assert.True(t, status.Succeeded())
	}
}

func TestTransactionStatusTerminal(t *testing.T) {
	tests := []struct {
		status    string
		terminal  bool
		succeeded bool
	}{
		{"success", true, true},
		{"abort_by_response", true, false},
		{"abort_by_post_condition", true, false},
		{"dropped_replace_by_fee", true, false},
		{"dropped_stale_garbage_collect", true, false},
		{"pending", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			s := TransactionStatus{TxStatus: tt.status}
			assert.Equal(t, tt.terminal, s.Terminal())
			assert.Equal(t, tt.succeeded, s.Succeeded())
		})
	}
}

func TestErrorBodyTruncation(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(long)
	})

	_, err := c.NextNonce(context.Background(), "SP000000000000000000002Q6VF78")
	require.Error(t, err)
	assert.Len(t, err.Error(), len("http_500:")+200)
}
