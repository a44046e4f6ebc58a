package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/CrossflowLabs/swapflow-lib/chains/evm/utils"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// SubmitTransfer sends an asset (native or ERC20) based on the provided
// transfer intent. The returned transfer carries the transaction hash as its
// reference; the hash exists on broadcast, before any confirmation.
//
// Parameters:
// - ctx: the context for managing the request.
// - intent: the transfer intent containing details of the asset transfer.
//
// Returns:
// - *types.Transfer: the submitted transfer.
// - error: an error if the client is not initialized or if the transaction fails.
func (e *evm) SubmitTransfer(ctx context.Context, intent *types.TransferIntent) (*types.Transfer, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	e.txSignerMutex.RLock()
	transactionSigner := e.txSigner
	e.txSignerMutex.RUnlock()

	if transactionSigner == nil {
		return nil, errors.New("signer not initialized")
	}

	nonce, err := client.PendingNonceAt(ctx, transactionSigner.Address())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nonce")
	}

	var tx *ethtypes.Transaction
	if intent.Token == "" || intent.Token == utils.ZeroAddress {
		tx, err = e.sendNativeAsset(ctx, intent, nonce)
	} else {
		tx, err = e.sendToken(ctx, intent, nonce)
	}
	if err != nil {
		return nil, err
	}

	return &types.Transfer{
		Ref:     types.NewTransactionIDRef(tx.Hash().Hex()),
		From:    transactionSigner.Address().Hex(),
		To:      intent.Recipient,
		Token:   intent.Token,
		Amount:  intent.Amount.String(),
		ChainID: e.config.ChainID,
	}, nil
}

// sendNativeAsset sends the chain's native asset. The memo, when present, is
// carried in the transaction input data.
func (e *evm) sendNativeAsset(ctx context.Context, intent *types.TransferIntent, nonce uint64) (*ethtypes.Transaction, error) {
	var data []byte
	if intent.Memo != "" {
		data = []byte(intent.Memo)
	}

	tx, err := e.prepareTransaction(ctx, nonce, intent.Recipient, intent.Amount, data)
	if err != nil {
		return nil, err
	}

	return e.signAndSendTransaction(ctx, tx)
}

// sendToken sends an ERC20 token based on the provided transfer intent.
func (e *evm) sendToken(ctx context.Context, intent *types.TransferIntent, nonce uint64) (*ethtypes.Transaction, error) {
	data, err := erc20ABI.Pack("transfer", common.HexToAddress(intent.Recipient), intent.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack transfer data")
	}

	tx, err := e.prepareTransaction(ctx, nonce, intent.Token, big.NewInt(0), data)
	if err != nil {
		return nil, err
	}

	return e.signAndSendTransaction(ctx, tx)
}

// prepareTransaction prepares a transaction with the given parameters.
//
// Parameters:
// - ctx: the context for managing the request.
// - nonce: the nonce for the transaction.
// - toAddress: the recipient address of the transaction.
// - value: the amount of Ether to send with the transaction.
// - data: the input data for the transaction.
//
// Returns:
// - *ethtypes.Transaction: the prepared transaction.
// - error: an error if the gas estimation, gas price retrieval, or client initialization fails.
func (e *evm) prepareTransaction(ctx context.Context, nonce uint64, toAddress string, value *big.Int, data []byte) (*ethtypes.Transaction, error) {
	estimatedGas, err := e.estimateGas(ctx, toAddress, value, data)
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to estimate gas")
		return nil, errors.Wrap(err, "failed to estimate gas")
	}

	gasLimit := uint64(float64(estimatedGas) * 1.1)

	to := common.HexToAddress(toAddress)

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	if e.config.TxType == TxTypeEIP1559 {
		gasPriceData, err := e.getEIP1559GasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get EIP-1559 gas price")
		}

		return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:    big.NewInt(0).SetUint64(e.config.ChainID),
			Nonce:      nonce,
			GasFeeCap:  gasPriceData.MaxFeePerGas,
			GasTipCap:  gasPriceData.MaxPriorityFeePerGas,
			Gas:        gasLimit,
			To:         &to,
			Value:      value,
			Data:       data,
			AccessList: nil,
		}), nil
	}

	gasPrice, err := e.estimateLegacyGasPrice(ctx, toAddress, value, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(150))
	gasPrice = new(big.Int).Div(gasPrice, big.NewInt(100))

	return ethtypes.NewTransaction(
		nonce,
		to,
		value,
		gasLimit,
		gasPrice,
		data,
	), nil
}

// signAndSendTransaction signs and sends the prepared transaction.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the prepared transaction to be signed and sent.
//
// Returns:
// - *ethtypes.Transaction: the signed and sent transaction.
// - error: an error if the client or signer is not initialized, or if the signing or sending fails.
func (e *evm) signAndSendTransaction(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	e.txSignerMutex.RLock()
	transactionSigner := e.txSigner
	e.txSignerMutex.RUnlock()

	if client == nil || transactionSigner == nil {
		return nil, errors.New("client or signer not initialized")
	}

	chainID := big.NewInt(0).SetUint64(e.config.ChainID)

	signedTx, err := transactionSigner.SignTx(tx, chainID)
	if err != nil {
		e.logger.WithError(err).Error("Failed to sign transaction")
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if err = client.SendTransaction(ctx, signedTx); err != nil {
		e.logger.WithError(err).Error("Failed to send transaction")
		return nil, errors.Wrap(err, "failed to send transaction")
	}

	return signedTx, nil
}
