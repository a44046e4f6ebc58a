package orchestrator

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/backend"
	"github.com/CrossflowLabs/swapflow-lib/canonical"
	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/quoter"
	"github.com/CrossflowLabs/swapflow-lib/signer"
)

// Orchestrator runs complete operations against one backend and a set of
// registered source chains. Multiple independent operations may run
// concurrently; the pipeline never serializes across unrelated ones.
type Orchestrator struct {
	gateway   backend.Gateway
	chains    types.ChainRegistry
	quoter    *quoter.Quoter
	refresher BalanceRefresher
	logger    *logrus.Logger
}

// New creates an Orchestrator. The refresher may be nil if no balance
// refresh side effect is wanted.
func New(gateway backend.Gateway, chains types.ChainRegistry, refresher BalanceRefresher, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:   gateway,
		chains:    chains,
		quoter:    quoter.New(gateway, logger),
		refresher: refresher,
		logger:    logger,
	}
}

// Params describes one operation to execute.
//
// Fields:
// - Operation: the operation type; defaults to a swap.
// - SourceChainID: the registered chain the pay leg settles on.
// - PayToken: the chain-qualified pay token identifier.
// - PayAmount: the pay amount in the token's smallest unit.
// - ReceiveToken: the chain-qualified receive token identifier.
// - ReceiveAmount: the expected receive amount; zero means quote it now.
// - ReceiveAddress: the destination address; empty means the payer address.
// - DepositAddress: the backend's deposit address on the source chain.
// - MaxSlippage: the tolerated slippage in percent.
// - OnRetryProgress: optional readiness retry progress callback.
// - OnStatus: optional listener for newly observed status strings.
// - RetryAttempts/RetryDelay: readiness retry budget; zero means defaults.
// - PollInterval/PollAttempts: status polling budget; zero means defaults.
type Params struct {
	Operation       types.OperationType
	SourceChainID   uint64
	PayToken        string
	PayAmount       uint64
	ReceiveToken    string
	ReceiveAmount   uint64
	ReceiveAddress  string
	DepositAddress  string
	MaxSlippage     float64
	OnRetryProgress ProgressFunc
	OnStatus        StatusListener
	RetryAttempts   int
	RetryDelay      time.Duration
	PollInterval    time.Duration
	PollAttempts    int
}

// Execute runs the full pipeline: quote, revalidate, canonical message,
// off-chain signature, source-ledger transfer, readiness-retried backend
// submission, and status polling to a terminal outcome.
//
// Each step strictly depends on the previous one; the backend call is never
// issued before the transfer has been submitted and a reference obtained,
// and the signature always covers the exact amounts placed in the backend
// call. Before the transfer is submitted the operation can be aborted via
// ctx with no side effects; afterwards cancellation only stops local
// observation.
func (o *Orchestrator) Execute(ctx context.Context, params *Params) (*Outcome, error) {
	if params.Operation == "" {
		params.Operation = types.OpSwap
	}

	chain := o.chains.Get(params.SourceChainID)
	if chain == nil {
		return nil, errors.Wrapf(commonerrors.ErrChainNotFound, "chain %d not registered", params.SourceChainID)
	}

	receiveAmount, err := o.resolveReceiveAmount(ctx, params)
	if err != nil {
		return nil, err
	}

	receiveAddress := params.ReceiveAddress
	if receiveAddress == "" {
		receiveAddress = chain.PayerAddress()
	}

	// The message is constructed fresh per attempt and immutable once
	// signed. Signing happens before the transfer so that a signing
	// rejection aborts with no side effects.
	message := &types.CanonicalMessage{
		PayToken:       params.PayToken,
		PayAmount:      params.PayAmount,
		PayAddress:     chain.PayerAddress(),
		ReceiveToken:   params.ReceiveToken,
		ReceiveAmount:  receiveAmount,
		ReceiveAddress: receiveAddress,
		MaxSlippage:    params.MaxSlippage,
		Timestamp:      time.Now().UnixMilli(),
	}

	signature, err := o.signMessage(ctx, chain, message)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		// Last abort point with no side effects.
		return nil, err
	}

	transfer, err := chain.SubmitTransfer(ctx, &types.TransferIntent{
		Token:     params.PayToken,
		Amount:    new(big.Int).SetUint64(params.PayAmount),
		Recipient: params.DepositAddress,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to submit source-ledger transfer")
	}

	o.logger.WithFields(logrus.Fields{
		"chainID":   params.SourceChainID,
		"payToken":  params.PayToken,
		"payAmount": params.PayAmount,
		"txRef":     transfer.Ref.String(),
	}).Info("Source-ledger transfer submitted")

	request := o.buildRequest(params, message, transfer.Ref, signature)

	retrier := NewRetryClient(params.RetryAttempts, params.RetryDelay, params.OnRetryProgress, o.logger)
	requestID, err := retrier.Submit(ctx, func(ctx context.Context) (string, error) {
		// The identical payload, including signature and reference, is
		// re-asked on every attempt. Single-use enforcement on the backend
		// makes this safe.
		return o.gateway.SubmitAsync(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	poller := NewPoller(o.gateway, requestID, PollerConfig{
		Interval:    params.PollInterval,
		MaxAttempts: params.PollAttempts,
		Listener:    params.OnStatus,
		Refresher:   o.refresher,
	}, o.logger)

	return poller.Run(ctx)
}

// resolveReceiveAmount fills in the expected receive amount. For swaps with
// no caller-provided amount it quotes now and revalidates the quote right
// before the amounts are bound into the message to be signed; a divergence
// beyond tolerance fails the whole attempt rather than silently proceeding
// with either amount.
func (o *Orchestrator) resolveReceiveAmount(ctx context.Context, params *Params) (uint64, error) {
	if params.ReceiveAmount != 0 {
		return params.ReceiveAmount, nil
	}
	if params.Operation != types.OpSwap {
		return 0, errors.Errorf("receive amount is required for %s operations", params.Operation)
	}

	quote, err := o.quoter.Quote(ctx, params.PayToken, strconv.FormatUint(params.PayAmount, 10), params.ReceiveToken)
	if err != nil {
		return 0, err
	}

	if err := o.quoter.Revalidate(ctx, quote, params.MaxSlippage); err != nil {
		return 0, err
	}

	receiveAmount, err := strconv.ParseUint(quote.ReceiveAmount, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid receive amount in quote")
	}

	return receiveAmount, nil
}

// signMessage obtains the off-chain authorization where the source ledger
// needs one. The deterministic sequenced ledger authorizes by caller
// identity, so its legs carry no signature; probabilistic chains require a
// signer capable of arbitrary-message signing.
func (o *Orchestrator) signMessage(ctx context.Context, chain types.Chain, message *types.CanonicalMessage) (string, error) {
	s := chain.Signer()

	switch s.Capability() {
	case types.CapSignArbitraryMessage:
		signature, err := signer.SignWithRetry(ctx, s, canonical.Build(message), o.logger)
		if err != nil {
			return "", errors.Wrap(err, "failed to sign canonical message")
		}
		return signature, nil
	case types.CapSignInOnly:
		// Sign-in wallets cannot authorize operations off-chain, which only
		// matters on ledgers that verify a signature at all.
		if chain.Config().ChainType.IsProbabilistic() {
			return "", errors.Wrap(commonerrors.ErrSigningUnsupported,
				"connected wallet only supports sign-in authentication")
		}
		return "", nil
	default:
		// No signer configured: acceptable only for ledgers that authorize
		// by caller identity.
		if chain.Config().ChainType.IsProbabilistic() {
			return "", errors.Wrapf(commonerrors.ErrSigningUnsupported,
				"chain %s requires an off-chain signature", chain.Config().Name)
		}
		return "", nil
	}
}

// buildRequest assembles the backend payload from the signed message and the
// transfer reference. Optional fields are set only when a signature exists,
// matching what the backend verifies for probabilistic-chain legs.
func (o *Orchestrator) buildRequest(params *Params, message *types.CanonicalMessage, ref *types.TxReference, signature string) *types.OperationRequest {
	request := &types.OperationRequest{
		Operation:     params.Operation,
		PayToken:      message.PayToken,
		PayAmount:     strconv.FormatUint(message.PayAmount, 10),
		ReceiveToken:  message.ReceiveToken,
		ReceiveAmount: strconv.FormatUint(message.ReceiveAmount, 10),
		PayTxRef:      ref,
	}

	if signature != "" {
		request.Signature = &signature
		timestamp := message.Timestamp
		request.Timestamp = &timestamp
		maxSlippage := message.MaxSlippage
		request.MaxSlippage = &maxSlippage
	}

	if message.ReceiveAddress != "" {
		receiveAddress := message.ReceiveAddress
		request.ReceiveAddress = &receiveAddress
	}

	return request
}
