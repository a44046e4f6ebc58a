package types

import (
	"context"
	"math/big"
)

// ChainConfig holds the configuration for a specific chain implementation.
//
// Fields:
// - Name: the name of the chain.
// - ChainType: the type of the chain.
// - ChainID: the unique identifier for the chain.
// - RpcUrl: the URL for the chain's RPC endpoint.
// - WaitNBlocks: the number of confirmations treated as settled locally.
// - TxType: the transaction envelope type for EVM chains (legacy or EIP-1559).
// - PrivateKey: the private key for signing transfers and canonical messages.
// - PayerAddress: the source-ledger address funds are paid from.
type ChainConfig struct {
	Name         string
	ChainType    ChainType
	ChainID      uint64
	RpcUrl       string
	WaitNBlocks  uint64
	TxType       uint8
	PrivateKey   string
	PayerAddress string
}

// TransferIntent describes a single source-ledger transfer to submit.
type TransferIntent struct {
	Token     string
	Amount    *big.Int
	Recipient string
	Memo      string
}

// Transfer is the result of an accepted source-ledger transfer. Ref is set as
// soon as the ledger accepts the transfer into its pending set; deep
// confirmation is not implied.
type Transfer struct {
	Ref     *TxReference
	From    string
	To      string
	Token   string
	Amount  string
	ChainID uint64
}

// TransferSubmitter submits value-moving transfers on the source ledger.
type TransferSubmitter interface {
	// SubmitTransfer submits a transfer and returns it once the ledger has
	// accepted it, with the transaction reference populated.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - intent: the transfer to submit.
	//
	// Returns:
	// - *Transfer: the accepted transfer with its reference.
	// - error: an error if submission fails.
	SubmitTransfer(ctx context.Context, intent *TransferIntent) (*Transfer, error)
}

// TransferWatcher provides transfer confirmation functionality.
type TransferWatcher interface {
	// WaitTransferConfirmation waits until the transfer reaches the chain's
	// configured confirmation depth.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - transfer: the transfer to wait for.
	//
	// Returns:
	// - bool: true if the transfer confirmed successfully.
	// - error: an error if confirmation could not be established.
	WaitTransferConfirmation(ctx context.Context, transfer *Transfer) (bool, error)
}

// BalanceProvider exposes token balances on a chain.
type BalanceProvider interface {
	// GetTokenBalance returns the balance of the given token for an address.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - address: the holder address.
	// - token: the chain-qualified token identifier.
	//
	// Returns:
	// - *big.Int: the balance in the token's smallest unit.
	// - error: an error if the balance lookup fails.
	GetTokenBalance(ctx context.Context, address string, token string) (*big.Int, error)

	// PayerAddress returns the configured payer address on this chain.
	PayerAddress() string
}

// SignCapability classifies what a chain's signing backend can produce.
// The variant is resolved once per connection and branched on explicitly.
type SignCapability int

const (
	// CapSignArbitraryMessage means the backend can sign an arbitrary byte
	// string, which is what the canonical message authorization requires.
	CapSignArbitraryMessage SignCapability = iota
	// CapSignInOnly means the backend only supports sign-in style
	// authentication and cannot authorize operations off-chain.
	CapSignInOnly
	// CapUnavailable means no signing backend is configured.
	CapUnavailable
)

func (c SignCapability) String() string {
	switch c {
	case CapSignArbitraryMessage:
		return "SignArbitraryMessage"
	case CapSignInOnly:
		return "SignInOnly"
	default:
		return "Unavailable"
	}
}

// MessageSigner produces off-chain signatures over arbitrary byte strings
// with the payer's source-ledger key.
type MessageSigner interface {
	// Capability reports what this signer can produce.
	Capability() SignCapability

	// SignMessage signs the given bytes and returns the encoded signature.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - message: the exact bytes to sign.
	//
	// Returns:
	// - string: the signature, encoded per the chain's convention.
	// - error: an error if signing fails or is rejected.
	SignMessage(ctx context.Context, message []byte) (string, error)

	// Address returns the signer's source-ledger address.
	Address() string
}

// Chain combines all chain-specific functionality.
type Chain interface {
	TransferSubmitter
	TransferWatcher
	BalanceProvider

	// Signer returns the chain's message signer. Callers must check the
	// signer's capability before requesting an arbitrary-message signature.
	Signer() MessageSigner

	// Config returns the chain configuration.
	Config() *ChainConfig
}

// ChainRegistry manages multiple chains.
type ChainRegistry interface {
	// Add adds a new chain to the registry.
	//
	// Parameters:
	// - ctx: the context for managing chain construction.
	// - config: the configuration for the chain to add.
	//
	// Returns:
	// - error: an error if adding the chain fails.
	Add(ctx context.Context, config *ChainConfig) error

	// Get retrieves a chain from the registry by its chain ID.
	//
	// Parameters:
	// - chainID: the unique identifier for the chain to retrieve.
	//
	// Returns:
	// - Chain: the retrieved chain instance, or nil if unknown.
	Get(chainID uint64) Chain

	// Remove removes a chain from the registry by its chain ID.
	//
	// Parameters:
	// - chainID: the unique identifier for the chain to remove.
	Remove(chainID uint64)
}
