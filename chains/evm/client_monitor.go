package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/CrossflowLabs/swapflow-lib/connectionmonitor"
)

// evmHealthClient adapts the chain to the connection monitor. A block number
// fetch doubles as the liveness probe.
type evmHealthClient struct {
	chain *evm
}

// initMonitor starts background health checking for the chain's RPC
// connection.
func (e *evm) initMonitor(ctx context.Context) error {
	e.monitorMutex.Lock()
	defer e.monitorMutex.Unlock()

	e.monitor = connectionmonitor.NewConnectionMonitor(&evmHealthClient{chain: e}, e.logger, e.config.Name)
	return e.monitor.Start(ctx)
}

// CheckConnection probes the client with a block number request.
func (h *evmHealthClient) CheckConnection(ctx context.Context) error {
	h.chain.clientMutex.RLock()
	client := h.chain.client
	h.chain.clientMutex.RUnlock()

	if client == nil {
		return errors.New("client not initialized")
	}

	_, err := client.BlockNumber(ctx)
	return err
}

// Reconnect closes the current client and dials the configured endpoint
// again.
func (h *evmHealthClient) Reconnect(ctx context.Context) error {
	h.chain.clientMutex.Lock()
	defer h.chain.clientMutex.Unlock()

	if h.chain.client != nil {
		h.chain.client.Close()
	}

	client, err := ethclient.Dial(h.chain.config.RpcUrl)
	if err != nil {
		return errors.Wrapf(err, "failed to reconnect to %s", h.chain.config.Name)
	}

	h.chain.client = client
	return nil
}
