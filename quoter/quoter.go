// Package quoter retrieves and validates pre-commit quotes. A quote is only
// an expectation: it decays with time and pool-state changes, so the amounts
// embedded in a signed message must be revalidated against a fresh quote
// before the signature is actually used.
package quoter

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/backend"
	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// Quoter queries expected counter-amounts and fees from the backend gateway.
// It never mutates backend state.
type Quoter struct {
	gateway backend.Gateway
	logger  *logrus.Logger
}

// New creates a Quoter backed by the given gateway.
func New(gateway backend.Gateway, logger *logrus.Logger) *Quoter {
	return &Quoter{gateway: gateway, logger: logger}
}

// Quote fetches a quote for swapping payAmount of payToken into
// receiveToken. The returned quote carries the full per-hop breakdown.
//
// A network or backend failure is surfaced as-is: retrying would only
// re-quote, so the caller decides whether to ask again.
func (q *Quoter) Quote(ctx context.Context, payToken, payAmount, receiveToken string) (*types.Quote, error) {
	quote, err := q.gateway.Quote(ctx, payToken, payAmount, receiveToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get quote")
	}

	if quote.ReceiveAmount == "" {
		return nil, errors.New("backend returned a quote without a receive amount")
	}

	q.logger.WithFields(logrus.Fields{
		"payToken":      payToken,
		"payAmount":     payAmount,
		"receiveToken":  receiveToken,
		"receiveAmount": quote.ReceiveAmount,
		"slippage":      quote.Slippage,
		"hops":          len(quote.Hops),
	}).Debug("Quote received")

	return quote, nil
}

// HopFee is one hop's fee contribution in display units of that hop's
// receive token. Intermediate hops have their own tokens and decimals;
// their fees are never expressed in the overall receive token's precision.
type HopFee struct {
	PoolSymbol string
	Token      string
	LpFee      decimal.Decimal
	GasFee     decimal.Decimal
}

// FeeBreakdown converts each hop's fees from smallest units to display units
// using that hop's own receive-token decimals.
func FeeBreakdown(quote *types.Quote) ([]HopFee, error) {
	fees := make([]HopFee, 0, len(quote.Hops))

	for _, hop := range quote.Hops {
		lpFee, err := scaleAmount(hop.LpFee, hop.ReceiveDecimals)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid lp fee on pool %s", hop.PoolSymbol)
		}
		gasFee, err := scaleAmount(hop.GasFee, hop.ReceiveDecimals)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid gas fee on pool %s", hop.PoolSymbol)
		}

		fees = append(fees, HopFee{
			PoolSymbol: hop.PoolSymbol,
			Token:      hop.ReceiveToken,
			LpFee:      lpFee,
			GasFee:     gasFee,
		})
	}

	return fees, nil
}

// scaleAmount converts a smallest-unit amount string to display units for the
// given decimals.
func scaleAmount(amount string, decimals uint8) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Zero, nil
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse amount")
	}

	return value.Shift(-int32(decimals)), nil
}

// Revalidate fetches a fresh quote for the same legs and checks that the
// signed receive amount is still achievable within maxSlippage percent. A
// divergence beyond tolerance means the signed message no longer matches
// market state: the caller must obtain a fresh quote and a fresh signature,
// never silently proceed.
//
// Parameters:
// - ctx: the context for managing the request.
// - quote: the quote whose amounts were (or are about to be) signed.
// - maxSlippage: the tolerated shortfall in percent.
//
// Returns:
// - error: the quote-stale sentinel if the fresh receive amount falls short.
func (q *Quoter) Revalidate(ctx context.Context, quote *types.Quote, maxSlippage float64) error {
	fresh, err := q.gateway.Quote(ctx, quote.PayToken, quote.PayAmount, quote.ReceiveToken)
	if err != nil {
		return errors.Wrap(err, "failed to revalidate quote")
	}

	signed, err := decimal.NewFromString(quote.ReceiveAmount)
	if err != nil {
		return errors.Wrap(err, "invalid signed receive amount")
	}
	current, err := decimal.NewFromString(fresh.ReceiveAmount)
	if err != nil {
		return errors.Wrap(err, "invalid fresh receive amount")
	}

	tolerance := decimal.NewFromFloat(maxSlippage).Div(decimal.NewFromInt(100))
	floor := signed.Mul(decimal.NewFromInt(1).Sub(tolerance))

	if current.LessThan(floor) {
		q.logger.WithFields(logrus.Fields{
			"signedReceiveAmount":  quote.ReceiveAmount,
			"currentReceiveAmount": fresh.ReceiveAmount,
			"maxSlippage":          maxSlippage,
		}).Warn("Quote diverged beyond slippage tolerance")

		return errors.Wrapf(commonerrors.ErrQuoteStale,
			"receive amount moved from %s to %s with max slippage %.1f%%",
			quote.ReceiveAmount, fresh.ReceiveAmount, maxSlippage)
	}

	return nil
}
