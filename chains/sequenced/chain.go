// Package sequenced implements the chain interface for the deterministic
// sequenced settlement ledger. Transfers are synchronous update calls: the
// ledger either applies the transfer and returns the block index it was
// recorded at, or rejects it. There is no confirmation depth to wait for and
// no off-chain signature requirement, since calls are authorized by the
// caller's identity.
package sequenced

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/chainmanager"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// sequenced represents the base sequenced ledger implementation
type sequenced struct {
	config *types.ChainConfig
	logger *logrus.Logger

	clientMutex sync.RWMutex
	client      Client
}

// NewSequencedChain creates a new sequenced ledger chain implementation
func NewSequencedChain(config *types.ChainConfig, logger *logrus.Logger) (types.Chain, error) {
	return NewSequencedChainWithClient(config, newHTTPClient(config.RpcUrl), logger)
}

// NewSequencedChainWithClient creates a sequenced ledger chain backed by the
// given client. Used by tests to substitute the ledger transport.
func NewSequencedChainWithClient(config *types.ChainConfig, client Client, logger *logrus.Logger) (types.Chain, error) {
	chain := &sequenced{
		config: config,
		logger: logger,
		client: client,
	}

	builder := chainmanager.NewChainBuilder(config)
	builder.WithTransferSubmitter(chain)
	builder.WithTransferWatcher(chain)
	builder.WithBalanceProvider(chain)

	return builder.Build(), nil
}

func (s *sequenced) ledgerClient() Client {
	s.clientMutex.RLock()
	defer s.clientMutex.RUnlock()
	return s.client
}
