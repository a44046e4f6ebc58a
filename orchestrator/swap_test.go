package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// stubSigner signs deterministically and records what it signed.
type stubSigner struct {
	capability types.SignCapability
	signed     [][]byte
}

func (s *stubSigner) Capability() types.SignCapability { return s.capability }
func (s *stubSigner) Address() string                  { return "payer-address" }

func (s *stubSigner) SignMessage(_ context.Context, message []byte) (string, error) {
	s.signed = append(s.signed, message)
	return fmt.Sprintf("sig-over-%d-bytes", len(message)), nil
}

// stubChain is a registry-facing chain whose transfers succeed immediately.
type stubChain struct {
	cfg       *types.ChainConfig
	signer    types.MessageSigner
	mu        sync.Mutex
	submitted []*types.TransferIntent
	nextTxID  int
	submitErr error
}

func newStubChain(chainType types.ChainType, s types.MessageSigner) *stubChain {
	return &stubChain{
		cfg: &types.ChainConfig{
			Name:         "stub",
			ChainType:    chainType,
			ChainID:      7,
			PayerAddress: "payer-address",
		},
		signer: s,
	}
}

func (c *stubChain) SubmitTransfer(_ context.Context, intent *types.TransferIntent) (*types.Transfer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitErr != nil {
		return nil, c.submitErr
	}

	c.submitted = append(c.submitted, intent)
	c.nextTxID++

	return &types.Transfer{
		Ref:     types.NewTransactionIDRef(fmt.Sprintf("tx-%d", c.nextTxID)),
		From:    c.cfg.PayerAddress,
		To:      intent.Recipient,
		Token:   intent.Token,
		Amount:  intent.Amount.String(),
		ChainID: c.cfg.ChainID,
	}, nil
}

func (c *stubChain) WaitTransferConfirmation(_ context.Context, _ *types.Transfer) (bool, error) {
	return true, nil
}

func (c *stubChain) GetTokenBalance(_ context.Context, _, _ string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (c *stubChain) PayerAddress() string        { return c.cfg.PayerAddress }
func (c *stubChain) Signer() types.MessageSigner { return c.signer }
func (c *stubChain) Config() *types.ChainConfig  { return c.cfg }

// mapRegistry is a minimal chain registry for tests.
type mapRegistry map[uint64]types.Chain

func (r mapRegistry) Add(_ context.Context, _ *types.ChainConfig) error { return nil }
func (r mapRegistry) Get(chainID uint64) types.Chain                    { return r[chainID] }
func (r mapRegistry) Remove(chainID uint64)                             { delete(r, chainID) }

// pipelineGateway is a backend stub that enforces single use of each
// (reference, signature) authorization and tracks call ordering.
type pipelineGateway struct {
	mu             sync.Mutex
	chain          *stubChain
	quote          *types.Quote
	revalidated    *types.Quote
	notReadyCalls  int
	submits        []*types.OperationRequest
	usedAuths      map[string]bool
	statusScript   []*types.RequestStatus
	statusPolls    int
	submitBeforeTx bool
	quoteCalls     int
}

func newPipelineGateway(chain *stubChain, quote *types.Quote) *pipelineGateway {
	return &pipelineGateway{
		chain:     chain,
		quote:     quote,
		usedAuths: make(map[string]bool),
		statusScript: []*types.RequestStatus{
			{
				RequestID: "req-1",
				Statuses:  []string{types.StatusTokenReceived, types.StatusTokenSent},
				Reply: &types.Reply{
					RequestID:     "req-1",
					Status:        types.ReplyStatusSuccess,
					PayToken:      quote.PayToken,
					PayAmount:     quote.PayAmount,
					ReceiveToken:  quote.ReceiveToken,
					ReceiveAmount: quote.ReceiveAmount,
				},
			},
		},
	}
}

func (g *pipelineGateway) Quote(_ context.Context, _, _, _ string) (*types.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.quoteCalls++
	if g.revalidated != nil && g.quoteCalls > 1 {
		return g.revalidated, nil
	}
	return g.quote, nil
}

func (g *pipelineGateway) SubmitAsync(_ context.Context, req *types.OperationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.chain.mu.Lock()
	transferred := len(g.chain.submitted) > 0
	g.chain.mu.Unlock()
	if !transferred {
		g.submitBeforeTx = true
	}

	g.submits = append(g.submits, req)

	if g.notReadyCalls > 0 {
		g.notReadyCalls--
		return "", errors.New("TRANSACTION_NOT_READY")
	}

	auth := req.PayTxRef.String()
	if req.Signature != nil {
		auth += "|" + *req.Signature
	}
	if g.usedAuths[auth] {
		return "", errors.Wrap(commonerrors.ErrDuplicateAuthorization, "authorization has already been used")
	}
	g.usedAuths[auth] = true

	return "req-1", nil
}

func (g *pipelineGateway) Status(_ context.Context, requestID string) (*types.RequestStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.statusPolls
	g.statusPolls++
	if idx >= len(g.statusScript) {
		idx = len(g.statusScript) - 1
	}
	return g.statusScript[idx], nil
}

func swapQuote() *types.Quote {
	return &types.Quote{
		PayToken:      "SOL",
		PayAmount:     "1000000",
		ReceiveToken:  "USDC",
		ReceiveAmount: "950000",
		Slippage:      0.4,
	}
}

func fastParams() *Params {
	return &Params{
		SourceChainID:  7,
		PayToken:       "SOL",
		PayAmount:      1000000,
		ReceiveToken:   "USDC",
		ReceiveAddress: "receiver",
		DepositAddress: "deposit",
		MaxSlippage:    5.0,
		RetryDelay:     time.Millisecond,
		PollInterval:   time.Millisecond,
	}
}

func TestExecuteHappyPath(t *testing.T) {
	s := &stubSigner{capability: types.CapSignArbitraryMessage}
	chain := newStubChain(types.SOLANA, s)
	gateway := newPipelineGateway(chain, swapQuote())

	o := New(gateway, mapRegistry{7: chain}, nil, newTestLogger())

	outcome, err := o.Execute(context.Background(), fastParams())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)

	// The backend call was never issued before the transfer.
	assert.False(t, gateway.submitBeforeTx)
	require.Len(t, chain.submitted, 1)
	assert.Equal(t, "deposit", chain.submitted[0].Recipient)
	assert.Equal(t, "1000000", chain.submitted[0].Amount.String())

	// The signature covers the exact amounts placed in the backend call.
	require.Len(t, s.signed, 1)
	signedMessage := string(s.signed[0])
	require.Len(t, gateway.submits, 1)
	req := gateway.submits[0]
	assert.Contains(t, signedMessage, `"pay_amount":"`+req.PayAmount+`"`)
	assert.Contains(t, signedMessage, `"receive_amount":"`+req.ReceiveAmount+`"`)
	require.NotNil(t, req.Signature)
	require.NotNil(t, req.Timestamp)
	require.NotNil(t, req.MaxSlippage)
	assert.Equal(t, 5.0, *req.MaxSlippage)
}

func TestExecuteRetriesNotReadyWithIdenticalPayload(t *testing.T) {
	s := &stubSigner{capability: types.CapSignArbitraryMessage}
	chain := newStubChain(types.SOLANA, s)
	gateway := newPipelineGateway(chain, swapQuote())
	gateway.notReadyCalls = 3

	o := New(gateway, mapRegistry{7: chain}, nil, newTestLogger())

	var progress []int
	params := fastParams()
	params.OnRetryProgress = func(attempt, _ int) { progress = append(progress, attempt) }

	outcome, err := o.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)
	assert.Equal(t, []int{1, 2, 3}, progress)

	// Retries are a pure re-ask: one signature, one transfer, identical
	// payload every attempt.
	require.Len(t, s.signed, 1)
	require.Len(t, chain.submitted, 1)
	require.Len(t, gateway.submits, 4)
	for _, req := range gateway.submits[1:] {
		assert.Equal(t, gateway.submits[0], req)
	}
}

func TestExecuteIdempotentAuthorization(t *testing.T) {
	// Three concurrent submissions of an identical signed payload: exactly
	// one success, the others rejected as duplicate authorization.
	s := &stubSigner{capability: types.CapSignArbitraryMessage}
	chain := newStubChain(types.SOLANA, s)
	gateway := newPipelineGateway(chain, swapQuote())

	transfer, err := chain.SubmitTransfer(context.Background(), &types.TransferIntent{
		Token:     "SOL",
		Amount:    big.NewInt(1000000),
		Recipient: "deposit",
	})
	require.NoError(t, err)

	signature := "sig-shared"
	request := &types.OperationRequest{
		Operation:     types.OpSwap,
		PayToken:      "SOL",
		PayAmount:     "1000000",
		ReceiveToken:  "USDC",
		ReceiveAmount: "950000",
		PayTxRef:      transfer.Ref,
		Signature:     &signature,
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gateway.SubmitAsync(context.Background(), request)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if commonerrors.Classify(err) == commonerrors.KindDuplicateAuthorization {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 2, duplicates)
}

func TestExecuteQuoteStaleAbortsBeforeAnySideEffect(t *testing.T) {
	s := &stubSigner{capability: types.CapSignArbitraryMessage}
	chain := newStubChain(types.SOLANA, s)
	gateway := newPipelineGateway(chain, swapQuote())

	// Revalidation sees a receive amount far below the quoted one.
	stale := swapQuote()
	stale.ReceiveAmount = "400000"
	gateway.revalidated = stale

	o := New(gateway, mapRegistry{7: chain}, nil, newTestLogger())

	_, err := o.Execute(context.Background(), fastParams())
	require.Error(t, err)
	assert.Equal(t, commonerrors.KindQuoteStale, commonerrors.Classify(err))

	// Nothing was signed, transferred or submitted.
	assert.Empty(t, s.signed)
	assert.Empty(t, chain.submitted)
	assert.Empty(t, gateway.submits)
}

func TestExecuteSignInOnlyWalletIsRejected(t *testing.T) {
	s := &stubSigner{capability: types.CapSignInOnly}
	chain := newStubChain(types.SOLANA, s)
	gateway := newPipelineGateway(chain, swapQuote())

	o := New(gateway, mapRegistry{7: chain}, nil, newTestLogger())

	_, err := o.Execute(context.Background(), fastParams())
	require.Error(t, err)
	assert.Equal(t, commonerrors.KindSigningRejected, commonerrors.Classify(err))
	assert.Empty(t, chain.submitted)
}

func TestExecuteSequencedLedgerNeedsNoSignature(t *testing.T) {
	chain := newStubChain(types.SEQUENCED, &stubSigner{capability: types.CapUnavailable})
	gateway := newPipelineGateway(chain, swapQuote())

	o := New(gateway, mapRegistry{7: chain}, nil, newTestLogger())

	outcome, err := o.Execute(context.Background(), fastParams())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)

	require.Len(t, gateway.submits, 1)
	assert.Nil(t, gateway.submits[0].Signature)
	assert.Nil(t, gateway.submits[0].Timestamp)
}

func TestExecuteSequencedLedgerToleratesSignInOnlyWallet(t *testing.T) {
	s := &stubSigner{capability: types.CapSignInOnly}
	chain := newStubChain(types.SEQUENCED, s)
	gateway := newPipelineGateway(chain, swapQuote())

	o := New(gateway, mapRegistry{7: chain}, nil, newTestLogger())

	outcome, err := o.Execute(context.Background(), fastParams())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)

	// The ledger authorizes by caller identity, so nothing was signed and
	// the request carries no signature.
	assert.Empty(t, s.signed)
	require.Len(t, gateway.submits, 1)
	assert.Nil(t, gateway.submits[0].Signature)
}

func TestExecuteUnknownChain(t *testing.T) {
	gateway := newPipelineGateway(newStubChain(types.SOLANA, nil), swapQuote())
	o := New(gateway, mapRegistry{}, nil, newTestLogger())

	_, err := o.Execute(context.Background(), fastParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, commonerrors.ErrChainNotFound)
}

func TestExecuteRefreshesBalancesWithExecutedAmounts(t *testing.T) {
	s := &stubSigner{capability: types.CapSignArbitraryMessage}
	chain := newStubChain(types.SOLANA, s)
	gateway := newPipelineGateway(chain, swapQuote())
	// Executed amount differs from the quoted 950000.
	gateway.statusScript[0].Reply.ReceiveAmount = "948213"

	refresher := &recordingRefresher{}
	o := New(gateway, mapRegistry{7: chain}, refresher, newTestLogger())

	outcome, err := o.Execute(context.Background(), fastParams())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)

	require.Len(t, refresher.replies, 1)
	assert.Equal(t, "948213", refresher.replies[0].ReceiveAmount)
}
