// Package orchestrator drives a single cross-chain swap/liquidity operation
// end to end: quote, canonical message, off-chain signature, source-ledger
// transfer, readiness-retried backend submission, and status polling to a
// terminal outcome. Retryable conditions are absorbed here; only the final
// classification crosses the package boundary.
package orchestrator

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
)

const (
	// DefaultRetryAttempts is the default readiness retry budget.
	DefaultRetryAttempts = 10
	// DefaultRetryDelay is the fixed delay between readiness retries.
	DefaultRetryDelay = time.Second
)

// ProgressFunc is invoked before each retry with the attempt number just
// failed and the total budget, so the caller can inform the user. It must
// never affect retry decisions and is called outside any lock.
type ProgressFunc func(attempt, maxAttempts int)

// SubmitFunc performs one backend submission and returns the accepted
// request id. The retry client calls it with an identical payload on every
// attempt; re-asking is safe because the backend enforces single use of the
// (reference, signature) authorization.
type SubmitFunc func(ctx context.Context) (string, error)

// retryState is the explicit state of the readiness retry machine. Keeping
// the machine in one loop over these states makes the attempt-count and
// delay invariants testable without timing-dependent mocks.
type retryState int

const (
	stateAttempting retryState = iota
	stateWaiting
	stateSucceeded
	stateFailedRetryable
	stateFailedFatal
)

// RetryClient resubmits one operation until the backend has observed the
// referenced source transfer, a terminal answer arrives, or the attempt
// budget runs out. Not-ready and transient classifications are retried with
// a fixed delay; everything else ends the loop immediately.
type RetryClient struct {
	maxAttempts int
	delay       time.Duration
	onProgress  ProgressFunc
	logger      *logrus.Logger
}

// NewRetryClient creates a retry client with the given budget. Zero values
// fall back to the defaults; onProgress may be nil.
func NewRetryClient(maxAttempts int, delay time.Duration, onProgress ProgressFunc, logger *logrus.Logger) *RetryClient {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryAttempts
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	return &RetryClient{
		maxAttempts: maxAttempts,
		delay:       delay,
		onProgress:  onProgress,
		logger:      logger,
	}
}

// Submit runs the retry machine around submit.
//
// Parameters:
// - ctx: the context for managing the attempts.
// - submit: the submission to re-ask.
//
// Returns:
// - string: the backend request id on success.
// - error: the terminal failure. A not-ready condition on the final attempt
//   becomes a verification-timeout error; retryable classifications never
//   leak out mid-loop.
func (c *RetryClient) Submit(ctx context.Context, submit SubmitFunc) (string, error) {
	var (
		state     = stateAttempting
		attempt   int
		requestID string
		lastErr   error
		lastKind  commonerrors.Kind
	)

	for {
		switch state {
		case stateAttempting:
			attempt++

			id, err := submit(ctx)
			if err == nil {
				requestID = id
				state = stateSucceeded
				break
			}

			lastErr = err
			lastKind = commonerrors.Classify(err)

			if !lastKind.Retryable() {
				state = stateFailedFatal
				break
			}
			if attempt >= c.maxAttempts {
				state = stateFailedRetryable
				break
			}

			c.logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"maxAttempts": c.maxAttempts,
				"kind":        lastKind.String(),
			}).Info("Backend not ready, will retry")

			if c.onProgress != nil {
				c.onProgress(attempt, c.maxAttempts)
			}
			state = stateWaiting

		case stateWaiting:
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				state = stateFailedFatal
			case <-time.After(c.delay):
				state = stateAttempting
			}

		case stateSucceeded:
			return requestID, nil

		case stateFailedRetryable:
			// Budget exhausted while the condition was still retryable.
			if lastKind == commonerrors.KindNotReady {
				return "", errors.Wrapf(commonerrors.ErrVerificationTimeout,
					"verification failed after %d attempts, the source-chain transaction may need more time",
					c.maxAttempts)
			}
			return "", errors.Wrapf(lastErr, "submission failed after %d attempts", c.maxAttempts)

		case stateFailedFatal:
			return "", lastErr
		}
	}
}
