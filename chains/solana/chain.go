package solana

import (
	"context"
	"sync"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/chainmanager"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/connectionmonitor"
	"github.com/CrossflowLabs/swapflow-lib/signer"
)

// solana represents the base Solana chain implementation
type solana struct {
	config *types.ChainConfig
	logger *logrus.Logger

	// Protected fields with their own mutexes
	clientMutex sync.RWMutex
	client      *rpc.Client

	keyMutex   sync.RWMutex
	privateKey sol.PrivateKey
	hasKey     bool

	monitorMutex sync.RWMutex
	monitor      connectionmonitor.ConnectionMonitor

	payerAddressMutex sync.RWMutex
	payerAddress      string
}

// NewSolanaChain creates a new Solana chain implementation
func NewSolanaChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.Chain, error) {
	chain := &solana{
		config: config,
		logger: logger,
		client: rpc.New(config.RpcUrl),
	}

	if err := chain.initMonitor(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	builder := chainmanager.NewChainBuilder(config)
	builder.WithTransferWatcher(chain)
	builder.WithBalanceProvider(chain)

	if config.PrivateKey != "" {
		privateKey, err := sol.PrivateKeyFromBase58(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse private key")
		}

		chain.keyMutex.Lock()
		chain.privateKey = privateKey
		chain.hasKey = true
		chain.keyMutex.Unlock()

		chain.payerAddressMutex.Lock()
		chain.payerAddress = privateKey.PublicKey().String()
		chain.payerAddressMutex.Unlock()

		messageSigner, err := signer.NewSolanaSigner(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create message signer")
		}

		builder.WithTransferSubmitter(chain)
		builder.WithMessageSigner(messageSigner)
	}

	return builder.Build(), nil
}

// signerKey returns the funded key with thread-safe access.
func (s *solana) signerKey() (sol.PrivateKey, error) {
	s.keyMutex.RLock()
	defer s.keyMutex.RUnlock()

	if !s.hasKey {
		return nil, errors.New("no private key configured")
	}
	return s.privateKey, nil
}

func (s *solana) rpcClient() *rpc.Client {
	s.clientMutex.RLock()
	defer s.clientMutex.RUnlock()
	return s.client
}

// Close should be called when chain is no longer needed
func (s *solana) Close() {
	s.monitorMutex.Lock()
	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.monitorMutex.Unlock()

	s.clientMutex.Lock()
	if s.client != nil {
		s.client = nil
	}
	s.clientMutex.Unlock()
}
