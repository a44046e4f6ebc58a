package dbconfig

import (
	"context"
	"math/big"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/dbconfig/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// tokenStore is the slice of the config store the refresher needs.
type tokenStore interface {
	GetChains(ctx context.Context, activeOnly bool) ([]models.Chain, error)
	GetTokenBySymbol(ctx context.Context, chainID uint64, symbol string) (*models.Token, error)
	UpdateBalance(ctx context.Context, chainID uint64, tokenAddress string, balance *big.Int) error
}

// BalanceRefresher re-reads on-chain payer balances for the tokens touched by
// a finished operation and persists them. Executed amounts can differ from the
// quoted ones, so it always fetches the live balance instead of applying a
// delta.
type BalanceRefresher struct {
	store    tokenStore
	registry types.ChainRegistry
	logger   *logrus.Logger
}

// NewBalanceRefresher creates a BalanceRefresher backed by the given config
// store and chain registry.
func NewBalanceRefresher(dbConfig *DBConfig, registry types.ChainRegistry, logger *logrus.Logger) *BalanceRefresher {
	return &BalanceRefresher{
		store:    dbConfig,
		registry: registry,
		logger:   logger,
	}
}

// RefreshBalances updates stored balances for the reply's pay and receive
// tokens on every active chain that lists them. Per-token failures are logged
// and skipped so one unreachable chain does not block the rest.
//
// Parameters:
// - ctx: the context for managing the refresh.
// - reply: the terminal reply with executed token symbols.
//
// Returns:
// - error: an error if the chain list cannot be loaded.
func (br *BalanceRefresher) RefreshBalances(ctx context.Context, reply *types.Reply) error {
	if reply == nil {
		return nil
	}

	chains, err := br.store.GetChains(ctx, true)
	if err != nil {
		return errors.Wrap(err, "failed to load active chains")
	}

	symbols := []string{reply.PayToken, reply.ReceiveToken}

	for _, chain := range chains {
		instance := br.registry.Get(chain.ChainID)
		if instance == nil {
			continue
		}

		for _, symbol := range symbols {
			if symbol == "" {
				continue
			}

			token, err := br.store.GetTokenBySymbol(ctx, chain.ChainID, symbol)
			if err != nil {
				// Not every token exists on every chain.
				continue
			}

			balance, err := instance.GetTokenBalance(ctx, instance.PayerAddress(), token.Address)
			if err != nil {
				br.logger.WithFields(logrus.Fields{
					"chainId": chain.ChainID,
					"token":   symbol,
				}).WithError(err).Warn("Failed to fetch token balance")
				continue
			}

			if err := br.store.UpdateBalance(ctx, chain.ChainID, token.Address, balance); err != nil {
				br.logger.WithFields(logrus.Fields{
					"chainId": chain.ChainID,
					"token":   symbol,
				}).WithError(err).Warn("Failed to persist token balance")
				continue
			}

			br.logger.WithFields(logrus.Fields{
				"chainId": chain.ChainID,
				"token":   symbol,
				"balance": balance.String(),
			}).Debug("Refreshed token balance")
		}
	}

	return nil
}
