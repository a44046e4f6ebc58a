package errors

import "github.com/pkg/errors"

var (
	ErrChainNotFound         = errors.New("chain not found")
	ErrInvalidChainID        = errors.New("invalid chain id")
	ErrDatabaseConnect       = errors.New("failed to connect to database")
	ErrInvalidConfig         = errors.New("invalid chain configuration")
	ErrChainExists           = errors.New("chain already exists in registry")
	ErrFactoryNotProvided    = errors.New("chain factory not provided")
	ErrInvalidChainType      = errors.New("invalid chain type")
	ErrNotImplemented        = errors.New("functionality not implemented")
	ErrTokenNotFound         = errors.New("token not found")
	ErrSigningUnsupported    = errors.New("arbitrary message signing unsupported")
	ErrSigningRejected       = errors.New("signing rejected by user")
	ErrQuoteStale            = errors.New("quote is stale, a fresh quote and signature are required")
	ErrVerificationTimeout   = errors.New("verification timed out waiting for the source-chain transaction")
	ErrStatusTimeout         = errors.New("request is still pending, status polling timed out")
	ErrDuplicateAuthorization = errors.New("authorization already used")
)
