package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func notReadyError() error {
	return errors.New("TRANSACTION_NOT_READY: transfer not observed")
}

func TestRetryConvergence(t *testing.T) {
	const failures = 4

	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		if calls <= failures {
			return "", notReadyError()
		}
		return "req-1", nil
	}

	var progress [][2]int
	client := NewRetryClient(10, time.Millisecond, func(attempt, maxAttempts int) {
		progress = append(progress, [2]int{attempt, maxAttempts})
	}, newTestLogger())

	requestID, err := client.Submit(context.Background(), submit)
	require.NoError(t, err)
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, failures+1, calls)

	// The progress callback fires exactly once per failed attempt, with
	// increasing attempt numbers.
	require.Len(t, progress, failures)
	for i, p := range progress {
		assert.Equal(t, i+1, p[0])
		assert.Equal(t, 10, p[1])
	}
}

func TestRetryExhaustion(t *testing.T) {
	const maxAttempts = 10

	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		return "", notReadyError()
	}

	client := NewRetryClient(maxAttempts, time.Millisecond, nil, newTestLogger())

	_, err := client.Submit(context.Background(), submit)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls)
	assert.ErrorIs(t, err, commonerrors.ErrVerificationTimeout)
	assert.Equal(t, commonerrors.KindVerificationTimeout, commonerrors.Classify(err))
	assert.Contains(t, err.Error(), "after 10 attempts")
}

func TestRetryTransientErrorsUseSamePolicy(t *testing.T) {
	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("network error: connection reset")
		}
		return "req-2", nil
	}

	client := NewRetryClient(5, time.Millisecond, nil, newTestLogger())

	requestID, err := client.Submit(context.Background(), submit)
	require.NoError(t, err)
	assert.Equal(t, "req-2", requestID)
	assert.Equal(t, 3, calls)
}

func TestRetryTransientExhaustionIsNotVerificationTimeout(t *testing.T) {
	submit := func(ctx context.Context) (string, error) {
		return "", errors.New("network error")
	}

	client := NewRetryClient(3, time.Millisecond, nil, newTestLogger())

	_, err := client.Submit(context.Background(), submit)
	require.Error(t, err)
	assert.NotErrorIs(t, err, commonerrors.ErrVerificationTimeout)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryFatalErrorStopsImmediately(t *testing.T) {
	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("insufficient balance")
	}

	client := NewRetryClient(10, time.Millisecond, nil, newTestLogger())

	_, err := client.Submit(context.Background(), submit)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDuplicateAuthorizationIsFatal(t *testing.T) {
	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		return "", errors.Wrap(commonerrors.ErrDuplicateAuthorization, "submit")
	}

	client := NewRetryClient(10, time.Millisecond, nil, newTestLogger())

	_, err := client.Submit(context.Background(), submit)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, commonerrors.KindDuplicateAuthorization, commonerrors.Classify(err))
}

func TestRetryContextCancellationStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", notReadyError()
	}

	client := NewRetryClient(10, time.Hour, nil, newTestLogger())

	_, err := client.Submit(ctx, submit)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryCallbackDoesNotAffectDecisions(t *testing.T) {
	var calls int
	submit := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", notReadyError()
		}
		return "req-3", nil
	}

	// Whatever the callback does with its arguments, retry accounting is
	// unchanged.
	client := NewRetryClient(5, time.Millisecond, func(attempt, maxAttempts int) {
		_ = attempt * maxAttempts
	}, newTestLogger())

	requestID, err := client.Submit(context.Background(), submit)
	require.NoError(t, err)
	assert.Equal(t, "req-3", requestID)
	assert.Equal(t, 2, calls)
}
