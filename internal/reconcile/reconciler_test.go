package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/platform/hiro"
)

type fakeStore struct {
	rows     []domain.SwapRecord
	listErr  error
	outcomes map[string]domain.SwapRecordStatus
	reasons  map[string]string
}

func newFakeStore(rows ...domain.SwapRecord) *fakeStore {
	return &fakeStore{
		rows:     rows,
		outcomes: map[string]domain.SwapRecordStatus{},
		reasons:  map[string]string{},
	}
}

func (f *fakeStore) Create(ctx context.Context, rec domain.SwapRecord) error {
	return nil
}

func (f *fakeStore) MarkOutcome(ctx context.Context, id string, status domain.SwapRecordStatus, reason string) error {
	f.outcomes[id] = status
	f.reasons[id] = reason
	return nil
}

func (f *fakeStore) ListSubmittedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.SwapRecord, error) {
	return f.rows, f.listErr
}

type fakeChain struct {
	statuses map[string]hiro.TransactionStatus
	errs     map[string]error
}

func (f *fakeChain) GetTransaction(ctx context.Context, txid string) (hiro.TransactionStatus, error) {
	if err, ok := f.errs[txid]; ok {
		return hiro.TransactionStatus{}, err
	}
	return f.statuses[txid], nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(ctx context.Context, event, title, message string) error {
	f.events = append(f.events, event)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{Interval: time.Second, MinTxAge: 15 * time.Second, BatchSize: 20}
}

func record(id, txid string) domain.SwapRecord {
	return domain.SwapRecord{ID: id, TxID: txid, Status: domain.SwapStatusSubmitted}
}

func TestSweepSettlesTerminalRows(t *testing.T) {
	store := newFakeStore(record("r1", "aa"), record("r2", "bb"), record("r3", "cc"))
	chain := &fakeChain{statuses: map[string]hiro.TransactionStatus{
		"aa": {TxID: "aa", TxStatus: "success"},
		"bb": {TxID: "bb", TxStatus: "abort_by_response"},
		"cc": {TxID: "cc", TxStatus: "pending"},
	}}
	notifier := &fakeNotifier{}
	r := New(testConfig(), store, chain, notifier, testLogger())

	require.NoError(t, r.Sweep(context.Background()))

	assert.Equal(t, domain.SwapStatusConfirmed, store.outcomes["r1"])
	assert.Equal(t, "success", store.reasons["r1"])
	assert.Equal(t, domain.SwapStatusAborted, store.outcomes["r2"])
	assert.Equal(t, "abort_by_response", store.reasons["r2"])

	// Pending rows wait for a later sweep.
	_, touched := store.outcomes["r3"]
	assert.False(t, touched)

	assert.ElementsMatch(t, []string{"swap_confirmed", "swap_aborted"}, notifier.events)
}

func TestSweepSkipsUnindexedTransactions(t *testing.T) {
	store := newFakeStore(record("r1", "aa"))
	chain := &fakeChain{errs: map[string]error{
		"aa": errors.New(`http_404:{"error":"not found"}`),
	}}
	r := New(testConfig(), store, chain, nil, testLogger())

	require.NoError(t, r.Sweep(context.Background()))
	assert.Empty(t, store.outcomes)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	store := newFakeStore(record("r1", "aa"), record("r2", "bb"))
	chain := &fakeChain{
		errs:     map[string]error{"aa": errors.New("http_502:bad gateway")},
		statuses: map[string]hiro.TransactionStatus{"bb": {TxID: "bb", TxStatus: "success"}},
	}
	r := New(testConfig(), store, chain, nil, testLogger())

	require.NoError(t, r.Sweep(context.Background()))
	assert.Equal(t, domain.SwapStatusConfirmed, store.outcomes["r2"])
}

func TestSweepSkipsRowsWithoutTxID(t *testing.T) {
	store := newFakeStore(record("r1", ""))
	chain := &fakeChain{}
	r := New(testConfig(), store, chain, nil, testLogger())

	require.NoError(t, r.Sweep(context.Background()))
	assert.Empty(t, store.outcomes)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	r := New(Config{Interval: 5 * time.Millisecond, BatchSize: 1}, store, &fakeChain{}, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
