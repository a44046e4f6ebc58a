package evm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/chainmanager"
	txsigner "github.com/CrossflowLabs/swapflow-lib/chains/evm/signer"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/connectionmonitor"
	"github.com/CrossflowLabs/swapflow-lib/signer"
)

const (
	// TxTypeLegacy represents the legacy transaction type.
	TxTypeLegacy = 0
	// TxTypeEIP1559 represents the EIP-1559 transaction type.
	TxTypeEIP1559 = 2
)

// evm represents the base EVM chain implementation.
type evm struct {
	config            *types.ChainConfig // Chain configuration.
	logger            *logrus.Logger     // Logger for logging events.
	payerAddress      common.Address     // Funded payer address.
	payerAddressMutex sync.RWMutex       // Mutex for payer address.

	// Protected fields with their own mutexes.
	clientMutex sync.RWMutex      // Mutex for client.
	client      *ethclient.Client // Ethereum client.

	txSignerMutex sync.RWMutex    // Mutex for transaction signer.
	txSigner      txsigner.Signer // Signer for signing transactions.

	monitorMutex sync.RWMutex                        // Mutex for connection monitor.
	monitor      connectionmonitor.ConnectionMonitor // Connection monitor.
}

// NewEvmChain creates a new EVM chain implementation.
//
// Parameters:
// - ctx: the context for managing the request.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - types.Chain: a new EVM chain instance.
// - error: an error if any issue occurs during creation.
func NewEvmChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.Chain, error) {
	client, err := ethclient.Dial(config.RpcUrl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	chain := &evm{
		config: config,
		logger: logger,
		client: client,
	}

	if config.PayerAddress != "" {
		chain.payerAddress = common.HexToAddress(config.PayerAddress)
	}

	if err := chain.initMonitor(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	builder := chainmanager.NewChainBuilder(config)
	builder.WithTransferWatcher(chain)
	builder.WithBalanceProvider(chain)

	if config.PrivateKey != "" {
		privKey, err := crypto.HexToECDSA(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse private key")
		}

		transactionSigner, err := txsigner.NewSigner(privKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create transaction signer")
		}

		chain.txSignerMutex.Lock()
		chain.txSigner = transactionSigner
		chain.txSignerMutex.Unlock()

		chain.payerAddressMutex.Lock()
		chain.payerAddress = transactionSigner.Address()
		chain.payerAddressMutex.Unlock()

		messageSigner, err := signer.NewEvmSigner(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create message signer")
		}

		builder.WithTransferSubmitter(chain)
		builder.WithMessageSigner(messageSigner)
	}

	return builder.Build(), nil
}

// Close should be called when the chain is no longer needed.
// It stops the connection monitor and closes the client.
func (e *evm) Close() {
	e.monitorMutex.Lock()
	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.monitorMutex.Unlock()

	e.clientMutex.Lock()
	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
	e.clientMutex.Unlock()
}

// GetClient returns the Ethereum client.
//
// Returns:
// - *ethclient.Client: the Ethereum client.
func (e *evm) GetClient() *ethclient.Client {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return e.client
}

// usesWebsocket reports whether the configured endpoint supports head
// subscriptions.
func (e *evm) usesWebsocket() bool {
	return strings.HasPrefix(e.config.RpcUrl, "ws://") || strings.HasPrefix(e.config.RpcUrl, "wss://")
}

// confirmationPollInterval is the delay between receipt checks on HTTP endpoints.
const confirmationPollInterval = time.Second
