package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/server/handler"
)

type stubExecutor struct{}

func (stubExecutor) Execute(ctx context.Context, req domain.SwapRequest) (domain.BroadcastResult, error) {
	return domain.BroadcastResult{TxID: "abc", Status: "submitted", Reason: "broadcasted"}, nil
}

func newTestServer(authToken string) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(Config{Port: 0, AuthToken: authToken}, Handlers{
		Health: handler.NewHealthHandler(),
		Swap:   handler.NewSwapHandler(stubExecutor{}, nil, 0, logger),
	}, logger)
	return srv.Handler()
}

func do(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouting(t *testing.T) {
	h := newTestServer("")

	t.Run("health is open", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true,"service":"stx-ststx-signer"}`, rec.Body.String())
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"ok":false,"status":"failed","reason":"not_found"}`, rec.Body.String())
	})

	t.Run("wrong method on known paths", func(t *testing.T) {
		for _, tc := range []struct{ method, path string }{
			{http.MethodPost, "/health"},
			{http.MethodGet, "/sign-and-broadcast"},
			{http.MethodDelete, "/sign-and-broadcast"},
		} {
			rec := do(h, tc.method, tc.path, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
			assert.JSONEq(t, `{"ok":false,"status":"failed","reason":"not_found"}`, rec.Body.String())
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("disabled when no token configured", func(t *testing.T) {
		h := newTestServer("")
		rec := do(h, http.MethodPost, "/sign-and-broadcast", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing or wrong credentials", func(t *testing.T) {
		h := newTestServer("secret")
		for name, headers := range map[string]map[string]string{
			"no header":    nil,
			"wrong token":  {"Authorization": "Bearer nope"},
			"wrong scheme": {"Authorization": "Basic secret"},
			"bare token":   {"Authorization": "secret"},
		} {
			rec := do(h, http.MethodPost, "/sign-and-broadcast", headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
			assert.JSONEq(t, `{"ok":false,"status":"failed","reason":"unauthorized"}`, rec.Body.String(), name)
		}
	})

	t.Run("valid bearer token", func(t *testing.T) {
		h := newTestServer("secret")
		rec := do(h, http.MethodPost, "/sign-and-broadcast", map[string]string{"Authorization": "Bearer secret"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health never requires auth", func(t *testing.T) {
		h := newTestServer("secret")
		rec := do(h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
