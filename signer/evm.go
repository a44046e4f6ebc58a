package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// evmSigner signs arbitrary byte strings with an ECDSA key using the
// personal-sign scheme: the message is prefixed, keccak-hashed and signed,
// with V transformed to 27/28 per the yellow paper. The signature is
// 0x-prefixed hex.
type evmSigner struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// NewEvmSigner creates a message signer from a hex-encoded private key.
func NewEvmSigner(privateKey string) (types.MessageSigner, error) {
	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	pubKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("cannot assign public key to ECDSA")
	}

	return &evmSigner{
		privateKey: key,
		address:    crypto.PubkeyToAddress(*pubKey).Hex(),
	}, nil
}

func (s *evmSigner) Capability() types.SignCapability {
	return types.CapSignArbitraryMessage
}

func (s *evmSigner) Address() string {
	return s.address
}

func (s *evmSigner) SignMessage(_ context.Context, message []byte) (string, error) {
	digest := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))

	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign message")
	}
	signature[64] += 27 // Transform V from 0/1 to 27/28 according to the yellow paper

	return hexutil.Encode(signature), nil
}
