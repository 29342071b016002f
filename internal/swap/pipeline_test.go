package swap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/domain"
	"github.com/alanyoungcy/ststx-signer/internal/stacks"
)

const testPrivateKey = "b244296d5907de9864c0b0d51f98a13c52890be0404e83f273144cd5b9960eed"

type fakeReadCaller struct {
	result string
	err    error
	calls  int
	args   []string
}

func (f *fakeReadCaller) CallReadOnly(ctx context.Context, contractAddress, contractName, functionName, sender string, args []string) (string, error) {
	f.calls++
	f.args = args
	return f.result, f.err
}

type fakeChainWriter struct {
	nonce        uint64
	nonceErr     error
	txid         string
	broadcastErr error
	broadcasts   int
	raw          []byte
}

func (f *fakeChainWriter) NextNonce(ctx context.Context, address string) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeChainWriter) BroadcastTransaction(ctx context.Context, raw []byte) (string, error) {
	f.broadcasts++
	f.raw = raw
	return f.txid, f.broadcastErr
}

type fakeStore struct {
	created []domain.SwapRecord
}

func (f *fakeStore) Create(ctx context.Context, rec domain.SwapRecord) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeStore) MarkOutcome(ctx context.Context, id string, status domain.SwapRecordStatus, reason string) error {
	return nil
}

func (f *fakeStore) ListSubmittedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.SwapRecord, error) {
	return nil, nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(ctx context.Context, event, title, message string) error {
	f.events = append(f.events, event)
	return nil
}

// okQuote encodes a (response ok (uint v)) read-only result.
func okQuote(v uint64) string {
	return "0x07" + stacks.ToHex(stacks.UintCV(v))[2:]
}

type pipelineFixture struct {
	feed     *fakeFeed
	read     *fakeReadCaller
	chain    *fakeChainWriter
	store    *fakeStore
	notifier *fakeNotifier

	noSigner    bool
	maxOrderUSD float64
}

func newFixture() *pipelineFixture {
	return &pipelineFixture{
		feed:     &fakeFeed{pair: domain.PricePair{StxUSD: 1.0, StstxUSD: 1.1}},
		read:     &fakeReadCaller{result: okQuote(1_000_000)},
		chain:    &fakeChainWriter{nonce: 7, txid: "deadbeef"},
		store:    &fakeStore{},
		notifier: &fakeNotifier{},
	}
}

func (f *pipelineFixture) build(t *testing.T) *Pipeline {
	t.Helper()
	logger := discardLogger()
	swapCfg := config.Defaults().Swap

	var signer *stacks.Signer
	if !f.noSigner {
		var err error
		signer, err = stacks.NewSigner(testPrivateKey, stacks.Mainnet)
		require.NoError(t, err)
	}

	return NewPipeline(PipelineConfig{
		Resolver:    NewPriceResolver(f.feed),
		Quoter:      NewQuoter(swapCfg, f.read, logger),
		Sender:      NewSender(swapCfg, signer, f.chain, logger),
		Fees:        NewFeePolicy(feeConfig(), nil, logger),
		Slippage:    SlippagePolicy{ExtraPct: 0.2, FloorPct: 0.5},
		MaxOrderUSD: f.maxOrderUSD,
		Store:       f.store,
		Notifier:    f.notifier,
		Logger:      logger,
	})
}

func TestPipelineSuccess(t *testing.T) {
	f := newFixture()
	p := f.build(t)

	res, err := p.Execute(context.Background(), domain.SwapRequest{
		Action:      domain.ActionBuyStSTX,
		OrderUSD:    100,
		FeeSTX:      0.003,
		SlippagePct: 1.0,
		StxUSD:      1.0,
		StstxUSD:    1.1,
	})
	require.NoError(t, err)

	assert.Equal(t, "deadbeef", res.TxID)
	assert.Equal(t, "submitted", res.Status)
	assert.Equal(t, "broadcasted", res.Reason)
	assert.Equal(t, 0.003, res.FeeSTX)

	// Overrides were complete, the feed stays untouched.
	assert.Zero(t, f.feed.calls)
	assert.Equal(t, 1, f.chain.broadcasts)
	assert.NotEmpty(t, f.chain.raw)

	require.Len(t, f.store.created, 1)
	rec := f.store.created[0]
	assert.Equal(t, domain.SwapStatusSubmitted, rec.Status)
	assert.Equal(t, "broadcasted", rec.Reason)
	assert.Equal(t, "deadbeef", rec.TxID)
	assert.Equal(t, uint64(100_000_000), rec.InputMicro)
	assert.Equal(t, uint64(988_000), rec.MinOutputMicro)
	assert.Equal(t, uint64(3000), rec.FeeMicro)
	assert.NotEmpty(t, rec.ID)

	assert.Equal(t, []string{"swap_submitted"}, f.notifier.events)
}

func TestPipelineValidationOrder(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*pipelineFixture)
		req    domain.SwapRequest
		reason string
	}{
		{
			"missing key checked before anything else",
			func(f *pipelineFixture) { f.noSigner = true },
			domain.SwapRequest{},
			domain.ReasonMissingSignerKey,
		},
		{
			"zero order",
			nil,
			domain.SwapRequest{Action: domain.ActionBuyStSTX},
			domain.ReasonInvalidOrderUSD,
		},
		{
			"negative order",
			nil,
			domain.SwapRequest{Action: domain.ActionBuyStSTX, OrderUSD: -5},
			domain.ReasonInvalidOrderUSD,
		},
		{
			"unknown action",
			nil,
			domain.SwapRequest{Action: "SHORT_STSTX", OrderUSD: 100},
			domain.ReasonUnsupportedAction,
		},
		{
			"order above limit",
			func(f *pipelineFixture) { f.maxOrderUSD = 50 },
			domain.SwapRequest{Action: domain.ActionBuyStSTX, OrderUSD: 100},
			domain.ReasonOrderAboveMax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			p := f.build(t)

			_, err := p.Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.reason, domain.ReasonOf(err))

			// Validation failures never touch the network or the ledger.
			assert.Zero(t, f.feed.calls)
			assert.Zero(t, f.read.calls)
			assert.Zero(t, f.chain.broadcasts)
			assert.Empty(t, f.store.created)
		})
	}
}

func TestPipelineQuoteFailures(t *testing.T) {
	t.Run("contract rejects the read", func(t *testing.T) {
		f := newFixture()
		f.read.err = domain.QuoteFailed("err u1001", nil)
		p := f.build(t)

		_, err := p.Execute(context.Background(), buyRequest())
		assert.Equal(t, "quote_failed:err u1001", domain.ReasonOf(err))
		assert.Zero(t, f.chain.broadcasts)
	})

	t.Run("zero quote", func(t *testing.T) {
		f := newFixture()
		f.read.result = okQuote(0)
		p := f.build(t)

		_, err := p.Execute(context.Background(), buyRequest())
		assert.Equal(t, domain.ReasonQuoteNonPositive, domain.ReasonOf(err))
		assert.Zero(t, f.chain.broadcasts)
	})
}

func TestPipelineBroadcastFailureRecorded(t *testing.T) {
	f := newFixture()
	f.chain.broadcastErr = domain.BroadcastFailed("ConflictingNonceInMempool", "")
	p := f.build(t)

	_, err := p.Execute(context.Background(), buyRequest())
	require.Error(t, err)
	assert.Equal(t, "broadcast_failed:ConflictingNonceInMempool:", domain.ReasonOf(err))

	require.Len(t, f.store.created, 1)
	rec := f.store.created[0]
	assert.Equal(t, domain.SwapStatusFailed, rec.Status)
	assert.Equal(t, "broadcast_failed:ConflictingNonceInMempool:", rec.Reason)
	assert.Empty(t, rec.TxID)

	assert.Equal(t, []string{"swap_failed"}, f.notifier.events)
}

func TestPipelineFetchesPricesWhenNotOverridden(t *testing.T) {
	f := newFixture()
	p := f.build(t)

	_, err := p.Execute(context.Background(), domain.SwapRequest{
		Action:   domain.ActionSellStSTX,
		OrderUSD: 110,
		FeeSTX:   0.003,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.feed.calls)

	// 110 USD at 1.1 USD/stSTX is just under 100 stSTX in float64 and the
	// sizing always floors.
	require.Len(t, f.store.created, 1)
	assert.Equal(t, uint64(99_999_999), f.store.created[0].InputMicro)
}

func buyRequest() domain.SwapRequest {
	return domain.SwapRequest{
		Action:   domain.ActionBuyStSTX,
		OrderUSD: 100,
		FeeSTX:   0.003,
		StxUSD:   1.0,
		StstxUSD: 1.1,
	}
}
