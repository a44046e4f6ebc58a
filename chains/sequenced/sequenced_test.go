package sequenced

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(url string) *types.ChainConfig {
	return &types.ChainConfig{
		Name:         "ledger",
		ChainType:    types.SEQUENCED,
		ChainID:      1,
		RpcUrl:       url,
		PayerAddress: "principal-1",
	}
}

func TestSubmitTransferReturnsBlockIndex(t *testing.T) {
	var gotRequest TransferRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(map[string]uint64{"block_index": 42117})
	}))
	defer server.Close()

	chain, err := NewSequencedChain(testConfig(server.URL), newTestLogger())
	require.NoError(t, err)

	transfer, err := chain.SubmitTransfer(context.Background(), &types.TransferIntent{
		Token:     "KONG",
		Amount:    big.NewInt(5000000),
		Recipient: "deposit-principal",
	})
	require.NoError(t, err)

	require.NotNil(t, transfer.Ref)
	require.NotNil(t, transfer.Ref.BlockIndex)
	assert.Equal(t, uint64(42117), *transfer.Ref.BlockIndex)
	assert.Equal(t, "block:42117", transfer.Ref.String())
	assert.Equal(t, "principal-1", transfer.From)
	assert.Equal(t, "5000000", gotRequest.Amount)
	assert.Equal(t, "deposit-principal", gotRequest.To)
}

func TestSubmitTransferLedgerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "DUPLICATE_TRANSFER",
			"message": "transfer has already been processed",
		})
	}))
	defer server.Close()

	chain, err := NewSequencedChain(testConfig(server.URL), newTestLogger())
	require.NoError(t, err)

	_, err = chain.SubmitTransfer(context.Background(), &types.TransferIntent{
		Token:     "KONG",
		Amount:    big.NewInt(1),
		Recipient: "deposit-principal",
	})
	require.Error(t, err)
	assert.Equal(t, commonerrors.KindDuplicateAuthorization, commonerrors.Classify(err))
}

func TestWaitTransferConfirmationIsImmediate(t *testing.T) {
	chain, err := NewSequencedChainWithClient(testConfig("http://unused"), nil, newTestLogger())
	require.NoError(t, err)

	settled, err := chain.WaitTransferConfirmation(context.Background(), &types.Transfer{
		Ref: types.NewBlockIndexRef(7),
	})
	require.NoError(t, err)
	assert.True(t, settled)

	_, err = chain.WaitTransferConfirmation(context.Background(), &types.Transfer{
		Ref: types.NewTransactionIDRef("abc"),
	})
	require.Error(t, err)
}

func TestGetTokenBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/balance/principal-1/KONG", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"balance": "123456789"})
	}))
	defer server.Close()

	chain, err := NewSequencedChain(testConfig(server.URL), newTestLogger())
	require.NoError(t, err)

	balance, err := chain.GetTokenBalance(context.Background(), "principal-1", "KONG")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(123456789), balance)
}

func TestNoSignerReportsUnavailableCapability(t *testing.T) {
	chain, err := NewSequencedChainWithClient(testConfig("http://unused"), nil, newTestLogger())
	require.NoError(t, err)

	require.NotNil(t, chain.Signer())
	assert.Equal(t, types.CapUnavailable, chain.Signer().Capability())
}
