package signer

import (
	"context"
	"crypto/ed25519"
	"testing"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSolanaSignerSignsAndVerifies(t *testing.T) {
	wallet := sol.NewWallet()

	s, err := NewSolanaSigner(wallet.PrivateKey.String())
	require.NoError(t, err)

	assert.Equal(t, types.CapSignArbitraryMessage, s.Capability())
	assert.Equal(t, wallet.PublicKey().String(), s.Address())

	message := []byte(`{"pay_token":"SOL","pay_amount":"1000000"}`)
	encoded, err := s.SignMessage(context.Background(), message)
	require.NoError(t, err)

	signature, err := sol.SignatureFromBase58(encoded)
	require.NoError(t, err)

	pub := ed25519.PublicKey(wallet.PublicKey().Bytes())
	assert.True(t, ed25519.Verify(pub, message, signature[:]))
}

func TestSolanaSignerDeterministicForSameMessage(t *testing.T) {
	wallet := sol.NewWallet()
	s, err := NewSolanaSigner(wallet.PrivateKey.String())
	require.NoError(t, err)

	message := []byte("canonical bytes")
	first, err := s.SignMessage(context.Background(), message)
	require.NoError(t, err)
	second, err := s.SignMessage(context.Background(), message)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvmSignerSigns(t *testing.T) {
	// Well-known test key, never funded.
	s, err := NewEvmSigner("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	assert.Equal(t, types.CapSignArbitraryMessage, s.Capability())
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", s.Address())

	encoded, err := s.SignMessage(context.Background(), []byte("canonical bytes"))
	require.NoError(t, err)
	assert.Len(t, encoded, 2+65*2) // 0x + 65 bytes hex
}

func TestSignInOnlyCannotAuthorize(t *testing.T) {
	s := SignInOnly("some-address")

	assert.Equal(t, types.CapSignInOnly, s.Capability())
	assert.Equal(t, "some-address", s.Address())

	_, err := s.SignMessage(context.Background(), []byte("msg"))
	assert.ErrorIs(t, err, commonerrors.ErrSigningUnsupported)
}

func TestSignWithRetryRejectsMissingCapability(t *testing.T) {
	_, err := SignWithRetry(context.Background(), Unavailable(), []byte("msg"), newTestLogger())
	assert.ErrorIs(t, err, commonerrors.ErrSigningUnsupported)

	_, err = SignWithRetry(context.Background(), SignInOnly("addr"), []byte("msg"), newTestLogger())
	assert.ErrorIs(t, err, commonerrors.ErrSigningUnsupported)
}

// flakySigner fails with a transient error a fixed number of times before
// succeeding.
type flakySigner struct {
	failures int
	calls    int
}

func (f *flakySigner) Capability() types.SignCapability { return types.CapSignArbitraryMessage }
func (f *flakySigner) Address() string                  { return "flaky" }

func (f *flakySigner) SignMessage(_ context.Context, _ []byte) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("provider network error")
	}
	return "sig", nil
}

type rejectingSigner struct{}

func (rejectingSigner) Capability() types.SignCapability { return types.CapSignArbitraryMessage }
func (rejectingSigner) Address() string                  { return "rejecting" }

func (rejectingSigner) SignMessage(_ context.Context, _ []byte) (string, error) {
	return "", commonerrors.ErrSigningRejected
}

func TestSignWithRetryRecoversFromTransientErrors(t *testing.T) {
	s := &flakySigner{failures: 2}

	signature, err := SignWithRetry(context.Background(), s, []byte("msg"), newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "sig", signature)
	assert.Equal(t, 3, s.calls)
}

func TestSignWithRetryUserRejectionIsImmediatelyFatal(t *testing.T) {
	_, err := SignWithRetry(context.Background(), rejectingSigner{}, []byte("msg"), newTestLogger())
	assert.ErrorIs(t, err, commonerrors.ErrSigningRejected)
}

func TestSignWithRetryExhaustsAttempts(t *testing.T) {
	s := &flakySigner{failures: 100}

	_, err := SignWithRetry(context.Background(), s, []byte("msg"), newTestLogger())
	require.Error(t, err)
	assert.Equal(t, 3, s.calls)
}
