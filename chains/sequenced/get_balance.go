package sequenced

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
)

// GetTokenBalance gets token balance for the given address.
//
// Parameters:
// - ctx: the context for managing the request
// - address: the address to check balance for
// - tokenAddress: the chain-qualified token identifier
//
// Returns:
// - *big.Int: the token balance
// - error: an error if the balance check fails
func (s *sequenced) GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error) {
	balance, err := s.ledgerClient().Balance(ctx, address, tokenAddress)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger balance")
	}
	return balance, nil
}

// PayerAddress returns the identity the ledger authorizes calls for.
//
// Returns:
// - string: the payer address.
func (s *sequenced) PayerAddress() string {
	return s.config.PayerAddress
}
