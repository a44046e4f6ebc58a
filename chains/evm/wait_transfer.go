package evm

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// subscriptionHandler manages block header subscriptions
type subscriptionHandler struct {
	subscription ethereum.Subscription
	headerChan   chan *ethtypes.Header
	sync.RWMutex
}

// close safely closes subscription and channel
func (h *subscriptionHandler) close() {
	h.Lock()
	defer h.Unlock()
	if h.subscription != nil {
		h.subscription.Unsubscribe()
		h.subscription = nil
	}
	if h.headerChan != nil {
		close(h.headerChan)
		h.headerChan = nil
	}
}

// WaitTransferConfirmation waits for the transfer's transaction to accumulate
// the configured number of confirmations. The transaction is never replaced
// or resubmitted while waiting: its hash is referenced by a signed
// authorization, so a replacement would orphan that authorization.
//
// Parameters:
// - ctx: the context for managing the request.
// - transfer: the transfer to wait for; its reference must carry a transaction hash.
//
// Returns:
// - bool: true if the transaction settled successfully, false if it reverted.
// - error: an error if the confirmation status cannot be determined.
func (e *evm) WaitTransferConfirmation(ctx context.Context, transfer *types.Transfer) (bool, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return false, errors.New("client not initialized")
	}

	if transfer.Ref == nil || transfer.Ref.TransactionID == nil {
		return false, errors.New("transfer has no transaction hash reference")
	}
	txHash := common.HexToHash(*transfer.Ref.TransactionID)

	if e.usesWebsocket() {
		return e.waitTransferConfirmationWS(ctx, txHash)
	}
	return e.waitTransferConfirmationHTTP(ctx, txHash)
}

// waitTransferConfirmationWS waits for confirmation using a head subscription
func (e *evm) waitTransferConfirmationWS(ctx context.Context, txHash common.Hash) (bool, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	handler := &subscriptionHandler{
		headerChan: make(chan *ethtypes.Header),
	}
	defer handler.close()

	// Subscribe to new block headers
	sub, err := client.SubscribeNewHead(ctx, handler.headerChan)
	if err != nil {
		return false, errors.Wrap(err, "failed to subscribe to new headers")
	}

	handler.Lock()
	handler.subscription = sub
	handler.Unlock()

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", txHash.Hex()).Error("WaitTransferConfirmation: context done")
			return false, ctx.Err()

		case err := <-sub.Err():
			return false, errors.Wrap(err, "subscription error")

		case header := <-handler.headerChan:
			if header == nil {
				continue
			}

			// Check transaction receipt
			receipt, err := client.TransactionReceipt(ctx, txHash)
			if err != nil {
				if errors.Is(err, ethereum.NotFound) {
					continue
				}
				return false, errors.Wrap(err, "failed to get transaction receipt")
			}

			// Wait for required block confirmations
			if header.Number.Uint64() < receipt.BlockNumber.Uint64()+e.config.WaitNBlocks {
				continue
			}

			return receipt.Status == ethtypes.ReceiptStatusSuccessful, nil
		}
	}
}

// waitTransferConfirmationHTTP waits for confirmation using HTTP polling
func (e *evm) waitTransferConfirmationHTTP(ctx context.Context, txHash common.Hash) (bool, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", txHash.Hex()).Error("WaitTransferConfirmation: context done")
			return false, ctx.Err()

		case <-ticker.C:
			receipt, err := client.TransactionReceipt(ctx, txHash)
			if err != nil {
				if errors.Is(err, ethereum.NotFound) {
					continue
				}
				return false, errors.Wrap(err, "failed to get transaction receipt")
			}

			currentBlock, err := client.BlockNumber(ctx)
			if err != nil {
				return false, errors.Wrap(err, "failed to get current block number")
			}

			if currentBlock < receipt.BlockNumber.Uint64()+e.config.WaitNBlocks {
				continue
			}

			return receipt.Status == ethtypes.ReceiptStatusSuccessful, nil
		}
	}
}
