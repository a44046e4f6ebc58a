package chainmanager

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// ChainFactory constructs a chain instance from its configuration. The
// factory decides the concrete implementation from the config's chain type.
type ChainFactory interface {
	CreateChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.Chain, error)
}

// chainRegistry keeps constructed chains keyed by chain id. Reads dominate
// writes, chains are added at startup and looked up per operation.
type chainRegistry struct {
	logger       *logrus.Logger
	chains       map[uint64]types.Chain
	chainsMutex  sync.RWMutex
	factory      ChainFactory
	factoryMutex sync.RWMutex
}

// NewChainRegistry creates a registry that builds chains through the given
// factory.
//
// Parameters:
// - factory: the factory used to construct chains on Add.
// - logger: the logger for logging purposes.
//
// Returns:
// - types.ChainRegistry: the new registry instance.
func NewChainRegistry(factory ChainFactory, logger *logrus.Logger) types.ChainRegistry {
	return &chainRegistry{
		chains:  make(map[uint64]types.Chain),
		factory: factory,
		logger:  logger,
	}
}

func (r *chainRegistry) Add(ctx context.Context, config *types.ChainConfig) error {
	// Hold the factory read lock across creation so a factory swap cannot
	// race a half-built chain.
	r.factoryMutex.RLock()
	chain, err := r.factory.CreateChain(ctx, config, r.logger)
	r.factoryMutex.RUnlock()

	if err != nil {
		return err
	}

	r.chainsMutex.Lock()
	r.chains[config.ChainID] = chain
	r.chainsMutex.Unlock()

	r.logger.WithFields(logrus.Fields{
		"chainId": config.ChainID,
		"name":    config.Name,
		"type":    config.ChainType,
	}).Info("Chain registered")

	return nil
}

func (r *chainRegistry) Get(chainID uint64) types.Chain {
	r.chainsMutex.RLock()
	chain := r.chains[chainID]
	r.chainsMutex.RUnlock()
	return chain
}

func (r *chainRegistry) Remove(chainID uint64) {
	r.chainsMutex.Lock()
	delete(r.chains, chainID)
	r.chainsMutex.Unlock()
}
