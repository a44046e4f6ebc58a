package chainmanager

import (
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// ChainBuilder is a builder pattern implementation for chain configuration.
// It allows setting various components of the chain such as transfer
// submitter, transfer watcher, balance provider, and message signer.
type ChainBuilder struct {
	config    *types.ChainConfig      // Chain configuration.
	submitter types.TransferSubmitter // Transfer submitter implementation.
	watcher   types.TransferWatcher   // Transfer watcher implementation.
	provider  types.BalanceProvider   // Balance provider implementation.
	signer    types.MessageSigner     // Message signer implementation.
}

// NewChainBuilder creates a new chain builder instance.
//
// Parameters:
// - config: the chain configuration.
//
// Returns:
// - *ChainBuilder: a new ChainBuilder instance.
func NewChainBuilder(config *types.ChainConfig) *ChainBuilder {
	return &ChainBuilder{
		config: config,
	}
}

// WithTransferSubmitter sets transfer submitter implementation.
//
// Parameters:
// - submitter: the transfer submitter implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithTransferSubmitter(submitter types.TransferSubmitter) *ChainBuilder {
	b.submitter = submitter
	return b
}

// WithTransferWatcher sets transfer watcher implementation.
//
// Parameters:
// - watcher: the transfer watcher implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithTransferWatcher(watcher types.TransferWatcher) *ChainBuilder {
	b.watcher = watcher
	return b
}

// WithBalanceProvider sets balance provider implementation.
//
// Parameters:
// - provider: the balance provider implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithBalanceProvider(provider types.BalanceProvider) *ChainBuilder {
	b.provider = provider
	return b
}

// WithMessageSigner sets message signer implementation.
//
// Parameters:
// - signer: the message signer implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithMessageSigner(signer types.MessageSigner) *ChainBuilder {
	b.signer = signer
	return b
}

// Build creates a new chain instance with configured implementations.
//
// Returns:
// - types.Chain: a new Chain instance with the configured implementations.
func (b *ChainBuilder) Build() types.Chain {
	return NewChain(b.config, b.submitter, b.watcher, b.provider, b.signer)
}
