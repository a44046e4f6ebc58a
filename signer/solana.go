package signer

import (
	"context"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// solanaSigner signs arbitrary byte strings with a Solana ed25519 key. The
// signature is base58 encoded, matching what the backend verifies against the
// payer's public key.
type solanaSigner struct {
	privateKey sol.PrivateKey
}

// NewSolanaSigner creates a message signer from a base58-encoded private key.
func NewSolanaSigner(privateKey string) (types.MessageSigner, error) {
	key, err := sol.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	return &solanaSigner{privateKey: key}, nil
}

func (s *solanaSigner) Capability() types.SignCapability {
	return types.CapSignArbitraryMessage
}

func (s *solanaSigner) Address() string {
	return s.privateKey.PublicKey().String()
}

func (s *solanaSigner) SignMessage(_ context.Context, message []byte) (string, error) {
	signature, err := s.privateKey.Sign(message)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign message")
	}

	return signature.String(), nil
}
