// Package signer provides off-chain message signers for the supported wallet
// backends. Not every backend can sign an arbitrary byte string (some only
// support sign-in style authentication), so every signer reports a capability
// that callers resolve once per connection and branch on explicitly.
package signer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

const (
	// signRetryAttempts bounds retries on transient provider I/O errors.
	signRetryAttempts = 3
	// signRetryDelay is the backoff between signing retries.
	signRetryDelay = 500 * time.Millisecond
)

// Unavailable returns a signer with no backing key. Every signing attempt
// fails with the signing-unsupported sentinel.
func Unavailable() types.MessageSigner {
	return unavailableSigner{}
}

type unavailableSigner struct{}

func (unavailableSigner) Capability() types.SignCapability { return types.CapUnavailable }
func (unavailableSigner) Address() string                  { return "" }

func (unavailableSigner) SignMessage(_ context.Context, _ []byte) (string, error) {
	return "", commonerrors.ErrSigningUnsupported
}

// SignInOnly wraps an address whose wallet backend only supports sign-in
// authentication. It carries the address for display purposes but cannot
// authorize operations.
func SignInOnly(address string) types.MessageSigner {
	return signInOnlySigner{address: address}
}

type signInOnlySigner struct {
	address string
}

func (signInOnlySigner) Capability() types.SignCapability { return types.CapSignInOnly }
func (s signInOnlySigner) Address() string                { return s.address }

func (signInOnlySigner) SignMessage(_ context.Context, _ []byte) (string, error) {
	return "", commonerrors.ErrSigningUnsupported
}

// SignWithRetry obtains a signature over message, retrying transient provider
// I/O errors a bounded number of times with a short backoff. User rejection
// and missing capability are fatal immediately.
//
// Parameters:
// - ctx: the context for managing the signing attempts.
// - s: the signer to use.
// - message: the exact bytes to sign.
// - logger: the logger for logging purposes.
//
// Returns:
// - string: the encoded signature.
// - error: a fatal error once retries are exhausted or a non-transient failure occurs.
func SignWithRetry(ctx context.Context, s types.MessageSigner, message []byte, logger *logrus.Logger) (string, error) {
	if s.Capability() != types.CapSignArbitraryMessage {
		return "", commonerrors.ErrSigningUnsupported
	}

	var lastErr error
	for attempt := 1; attempt <= signRetryAttempts; attempt++ {
		signature, err := s.SignMessage(ctx, message)
		if err == nil {
			return signature, nil
		}
		lastErr = err

		if commonerrors.Classify(err) != commonerrors.KindTransient {
			return "", err
		}

		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("Transient signing error, retrying")

		if attempt == signRetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(signRetryDelay):
		}
	}

	return "", lastErr
}
