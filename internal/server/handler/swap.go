package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// maxBodyBytes caps the request body; swap requests are tiny.
const maxBodyBytes = 1 << 20

// SwapExecutor runs one parsed swap request through the pipeline.
type SwapExecutor interface {
	Execute(ctx context.Context, req domain.SwapRequest) (domain.BroadcastResult, error)
}

// SwapHandler serves the sign-and-broadcast endpoint.
type SwapHandler struct {
	pipeline SwapExecutor
	idem     domain.IdempotencyCache // nil disables idempotency handling
	timeout  time.Duration           // 0 disables the per-request deadline
	logger   *slog.Logger
}

// NewSwapHandler creates the handler. idem may be nil.
func NewSwapHandler(pipeline SwapExecutor, idem domain.IdempotencyCache, timeout time.Duration, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{
		pipeline: pipeline,
		idem:     idem,
		timeout:  timeout,
		logger:   logger.With(slog.String("handler", "swap")),
	}
}

// successBody is the wire shape of a successful broadcast.
type successBody struct {
	Ok     bool    `json:"ok"`
	Status string  `json:"status"`
	Reason string  `json:"reason"`
	TxID   string  `json:"txid"`
	FeeSTX float64 `json:"fee_stx"`
}

// SignAndBroadcast parses the request, runs the pipeline, and writes the
// single success or failure envelope. An empty body is treated as an empty
// request; a malformed one surfaces the parse error verbatim.
// POST /sign-and-broadcast
func (h *SwapHandler) SignAndBroadcast(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req domain.SwapRequest
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &req); err != nil {
			writeFailure(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	claimed := false
	if key != "" && h.idem != nil {
		stored, done, err := h.idem.Begin(ctx, key)
		switch {
		case err != nil && errors.Is(err, domain.ErrDuplicateRequest):
			writeFailure(w, http.StatusConflict, domain.ReasonDuplicateRequest)
			return
		case err != nil:
			// The cache being down must not block broadcasts.
			h.logger.WarnContext(ctx, "idempotency claim failed, proceeding without",
				slog.String("error", err.Error()),
			)
		case done:
			w.Header().Set("Idempotency-Replayed", "true")
			writeRaw(w, http.StatusOK, stored)
			return
		default:
			claimed = true
		}
	}

	res, err := h.pipeline.Execute(ctx, req)
	if err != nil {
		if claimed {
			h.release(ctx, key)
		}
		reason := domain.ReasonOf(err)
		h.logger.ErrorContext(ctx, "swap failed", slog.String("reason", reason))
		writeFailure(w, http.StatusInternalServerError, reason)
		return
	}

	data, err := json.Marshal(successBody{
		Ok:     true,
		Status: res.Status,
		Reason: res.Reason,
		TxID:   res.TxID,
		FeeSTX: res.FeeSTX,
	})
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	if claimed {
		if err := h.idem.Complete(context.WithoutCancel(ctx), key, data); err != nil {
			h.logger.WarnContext(ctx, "idempotency store failed", slog.String("error", err.Error()))
		}
	}
	writeRaw(w, http.StatusOK, data)
}

// release clears a claimed idempotency key after a failed run so the
// caller can retry with the same key.
func (h *SwapHandler) release(ctx context.Context, key string) {
	if err := h.idem.Abort(context.WithoutCancel(ctx), key); err != nil {
		h.logger.WarnContext(ctx, "idempotency release failed", slog.String("error", err.Error()))
	}
}
