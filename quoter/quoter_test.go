package quoter

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// stubGateway serves canned quotes and records calls.
type stubGateway struct {
	quotes []*types.Quote
	errs   []error
	calls  int
}

func (s *stubGateway) Quote(_ context.Context, _, _, _ string) (*types.Quote, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx >= len(s.quotes) {
		idx = len(s.quotes) - 1
	}
	return s.quotes[idx], nil
}

func (s *stubGateway) SubmitAsync(_ context.Context, _ *types.OperationRequest) (string, error) {
	return "", errors.New("not used")
}

func (s *stubGateway) Status(_ context.Context, _ string) (*types.RequestStatus, error) {
	return nil, errors.New("not used")
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func multiHopQuote() *types.Quote {
	return &types.Quote{
		PayToken:      "SOL",
		PayAmount:     "1000000000",
		ReceiveToken:  "KONG",
		ReceiveAmount: "420000000000",
		Slippage:      0.7,
		Hops: []types.QuoteHop{
			{
				PoolSymbol:      "SOL_USDT",
				PayToken:        "SOL",
				PayDecimals:     9,
				ReceiveToken:    "USDT",
				ReceiveDecimals: 6,
				LpFee:           "300000",   // 0.3 USDT at 6 decimals
				GasFee:          "10000",    // 0.01 USDT
			},
			{
				PoolSymbol:      "KONG_USDT",
				PayToken:        "USDT",
				PayDecimals:     6,
				ReceiveToken:    "KONG",
				ReceiveDecimals: 8,
				LpFee:           "126000000", // 1.26 KONG at 8 decimals
				GasFee:          "100000",    // 0.001 KONG
			},
		},
	}
}

func TestQuoteSurfacesGatewayError(t *testing.T) {
	gateway := &stubGateway{errs: []error{errors.New("backend unavailable")}, quotes: []*types.Quote{nil}}
	q := New(gateway, newTestLogger())

	_, err := q.Quote(context.Background(), "SOL", "1000000", "USDC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestFeeBreakdownUsesEachHopsOwnDecimals(t *testing.T) {
	fees, err := FeeBreakdown(multiHopQuote())
	require.NoError(t, err)
	require.Len(t, fees, 2)

	// First hop fees are in USDT at 6 decimals.
	assert.Equal(t, "USDT", fees[0].Token)
	assert.Equal(t, "0.3", fees[0].LpFee.String())
	assert.Equal(t, "0.01", fees[0].GasFee.String())

	// Second hop fees are in KONG at 8 decimals, not the overall receive
	// token's precision.
	assert.Equal(t, "KONG", fees[1].Token)
	assert.Equal(t, "1.26", fees[1].LpFee.String())
	assert.Equal(t, "0.001", fees[1].GasFee.String())
}

func TestFeeBreakdownEmptyFees(t *testing.T) {
	quote := multiHopQuote()
	quote.Hops[0].LpFee = ""
	quote.Hops[0].GasFee = ""

	fees, err := FeeBreakdown(quote)
	require.NoError(t, err)
	assert.True(t, fees[0].LpFee.IsZero())
}

func TestRevalidateWithinTolerance(t *testing.T) {
	signed := multiHopQuote()
	fresh := multiHopQuote()
	fresh.ReceiveAmount = "416000000000" // ~0.95% below, tolerance 2%

	gateway := &stubGateway{quotes: []*types.Quote{fresh}}
	q := New(gateway, newTestLogger())

	assert.NoError(t, q.Revalidate(context.Background(), signed, 2.0))
}

func TestRevalidateBeyondToleranceIsQuoteStale(t *testing.T) {
	signed := multiHopQuote()
	fresh := multiHopQuote()
	fresh.ReceiveAmount = "400000000000" // ~4.76% below, tolerance 2%

	gateway := &stubGateway{quotes: []*types.Quote{fresh}}
	q := New(gateway, newTestLogger())

	err := q.Revalidate(context.Background(), signed, 2.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, commonerrors.ErrQuoteStale)
	assert.Equal(t, commonerrors.KindQuoteStale, commonerrors.Classify(err))
}

func TestRevalidateHigherReceiveAmountIsFine(t *testing.T) {
	signed := multiHopQuote()
	fresh := multiHopQuote()
	fresh.ReceiveAmount = "430000000000"

	gateway := &stubGateway{quotes: []*types.Quote{fresh}}
	q := New(gateway, newTestLogger())

	assert.NoError(t, q.Revalidate(context.Background(), signed, 0.5))
}
