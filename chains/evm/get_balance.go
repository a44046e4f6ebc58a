package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/CrossflowLabs/swapflow-lib/chains/evm/generated"
	"github.com/CrossflowLabs/swapflow-lib/chains/evm/utils"
)

// erc20ABI is parsed once; the constant is compiled in, so a parse failure is
// a programming error.
var erc20ABI = mustParseERC20ABI()

func mustParseERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(generated.ERC20ABI))
	if err != nil {
		panic(errors.Wrap(err, "invalid ERC20 ABI constant"))
	}
	return parsed
}

// GetTokenBalance returns the balance held by address. An empty token or the
// zero address selects the native balance, anything else is treated as an
// ERC20 contract and queried via balanceOf.
//
// Parameters:
// - ctx: the context for managing the request.
// - address: the holder address.
// - tokenAddress: the token contract address, or empty for native.
//
// Returns:
// - *big.Int: the balance in the token's smallest unit.
// - error: an error if the balance lookup fails.
func (e *evm) GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	if tokenAddress == "" || tokenAddress == utils.ZeroAddress {
		balance, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get native token balance")
		}
		return balance, nil
	}

	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack balanceOf data")
	}

	tokenAddr := common.HexToAddress(tokenAddress)
	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &tokenAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	if len(result) == 0 {
		return nil, errors.New("empty result from balanceOf call")
	}

	return new(big.Int).SetBytes(result), nil
}
