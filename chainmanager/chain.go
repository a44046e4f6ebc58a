package chainmanager

import (
	"context"
	"math/big"
	"sync"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/signer"
)

// Chain implements types.Chain interface with thread-safe access to dependencies.
// It provides methods to interact with the chain's transfer submitter, transfer watcher,
// balance provider, and message signer.
// Each dependency is protected by a read-write mutex to ensure thread-safe access.
type Chain struct {
	config    *types.ChainConfig      // Chain configuration.
	submitter types.TransferSubmitter // Transfer submitter implementation.
	watcher   types.TransferWatcher   // Transfer watcher implementation.
	provider  types.BalanceProvider   // Balance provider implementation.
	signer    types.MessageSigner     // Message signer implementation.

	// Mutexes for thread-safe access to dependencies.
	submitterMutex sync.RWMutex // Mutex for transfer submitter.
	watcherMutex   sync.RWMutex // Mutex for transfer watcher.
	providerMutex  sync.RWMutex // Mutex for balance provider.
	signerMutex    sync.RWMutex // Mutex for message signer.
}

// NewChain creates a new Chain instance.
//
// Parameters:
// - config: the chain configuration.
// - submitter: the transfer submitter implementation.
// - watcher: the transfer watcher implementation.
// - provider: the balance provider implementation.
// - messageSigner: the message signer implementation.
//
// Returns:
// - *Chain: a new Chain instance.
func NewChain(
	config *types.ChainConfig,
	submitter types.TransferSubmitter,
	watcher types.TransferWatcher,
	provider types.BalanceProvider,
	messageSigner types.MessageSigner,
) *Chain {
	return &Chain{
		config:    config,
		submitter: submitter,
		watcher:   watcher,
		provider:  provider,
		signer:    messageSigner,
	}
}

// SubmitTransfer submits a transfer with thread-safe access.
// It locks the submitter mutex for reading to ensure safe concurrent access to the submitter.
// If the submitter is not implemented, it returns an error.
//
// Parameters:
// - ctx: context for managing the lifecycle of the transfer submission.
// - intent: the transfer intent containing details of the asset to be sent.
//
// Returns:
// - *types.Transfer: the submitted transfer with its ledger reference.
// - error: an error if the submitter is not implemented or if any issue occurs during submission.
func (c *Chain) SubmitTransfer(ctx context.Context, intent *types.TransferIntent) (*types.Transfer, error) {
	c.submitterMutex.RLock()
	defer c.submitterMutex.RUnlock()

	if c.submitter == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return c.submitter.SubmitTransfer(ctx, intent)
}

// WaitTransferConfirmation waits for transfer confirmation with thread-safe access.
// It locks the watcher mutex for reading to ensure safe concurrent access to the watcher.
// If the watcher is not implemented, it returns an error.
//
// Parameters:
// - ctx: context for managing the lifecycle of the transfer confirmation.
// - transfer: the transfer to be confirmed.
//
// Returns:
// - bool: true if the transfer is confirmed, false otherwise.
// - error: an error if the watcher is not implemented or if any issue occurs during confirmation.
func (c *Chain) WaitTransferConfirmation(ctx context.Context, transfer *types.Transfer) (bool, error) {
	c.watcherMutex.RLock()
	defer c.watcherMutex.RUnlock()

	if c.watcher == nil {
		return false, commonerrors.ErrNotImplemented
	}
	return c.watcher.WaitTransferConfirmation(ctx, transfer)
}

func (c *Chain) GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error) {
	c.providerMutex.RLock()
	provider := c.provider
	c.providerMutex.RUnlock()

	if provider == nil {
		return nil, commonerrors.ErrNotImplemented
	}

	return provider.GetTokenBalance(ctx, address, tokenAddress)
}

func (c *Chain) PayerAddress() string {
	c.providerMutex.RLock()
	provider := c.provider
	c.providerMutex.RUnlock()

	if provider == nil {
		return ""
	}

	return provider.PayerAddress()
}

// Signer returns the message signer with thread-safe access. A chain built
// without one reports the unavailable capability instead of returning nil.
//
// Returns:
// - types.MessageSigner: the message signer instance.
func (c *Chain) Signer() types.MessageSigner {
	c.signerMutex.RLock()
	defer c.signerMutex.RUnlock()

	if c.signer == nil {
		return signer.Unavailable()
	}
	return c.signer
}

// Config returns chain configuration.
//
// Returns:
// - *types.ChainConfig: the chain configuration instance.
func (c *Chain) Config() *types.ChainConfig {
	return c.config
}

// Helper methods with thread-safe access to dependencies

// GetSubmitter returns the transfer submitter with thread-safe access.
// It locks the submitter mutex for reading to ensure safe concurrent access to the submitter.
//
// Returns:
// - types.TransferSubmitter: the transfer submitter instance.
func (c *Chain) GetSubmitter() types.TransferSubmitter {
	c.submitterMutex.RLock()
	defer c.submitterMutex.RUnlock()
	return c.submitter
}

// GetWatcher returns the transfer watcher with thread-safe access.
// It locks the watcher mutex for reading to ensure safe concurrent access to the watcher.
//
// Returns:
// - types.TransferWatcher: the transfer watcher instance.
func (c *Chain) GetWatcher() types.TransferWatcher {
	c.watcherMutex.RLock()
	defer c.watcherMutex.RUnlock()
	return c.watcher
}
