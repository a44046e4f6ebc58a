package errors

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type codedError struct {
	code    string
	message string
}

func (e *codedError) Error() string     { return e.message }
func (e *codedError) ErrorCode() string { return e.code }

func TestClassifyNotReadyVariants(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"exact sentinel", errors.New("TRANSACTION_NOT_READY")},
		{"lowercase sentinel", errors.New("transaction_not_ready")},
		{"paraphrase", errors.New("Transaction Not Ready, try again")},
		{"embedded in trace", errors.Wrap(errors.New("call rejected: TRANSACTION_NOT_READY"), "submit failed")},
		{"structured code", &codedError{code: "TRANSACTION_NOT_READY", message: "rejected"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindNotReady, Classify(tt.err))
		})
	}
}

func TestClassifyDuplicateAuthorization(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", ErrDuplicateAuthorization},
		{"wrapped sentinel", errors.Wrap(ErrDuplicateAuthorization, "submit failed")},
		{"backend text", errors.New("signature has already been used")},
		{"duplicate text", errors.New("Duplicate request rejected")},
		{"structured code", &codedError{code: "DUPLICATE_AUTHORIZATION", message: "rejected"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindDuplicateAuthorization, Classify(tt.err))
		})
	}
}

func TestClassifyTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"network", errors.New("network error")},
		{"timeout", errors.New("request Timeout exceeded")},
		{"fetch", errors.New("failed to fetch")},
		{"connection refused", errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindTransient, Classify(tt.err))
		})
	}
}

func TestClassifyFatalFallback(t *testing.T) {
	assert.Equal(t, KindFatal, Classify(errors.New("insufficient balance")))
	assert.Equal(t, KindFatal, Classify(nil))
}

func TestClassifyContextCancellation(t *testing.T) {
	// Caller abort must never be treated as retryable.
	assert.Equal(t, KindFatal, Classify(context.Canceled))
	assert.Equal(t, KindFatal, Classify(errors.Wrap(context.DeadlineExceeded, "poll")))
}

func TestClassifyExplicitTag(t *testing.T) {
	err := WithKind(KindQuoteStale, errors.New("receive amount moved"))
	assert.Equal(t, KindQuoteStale, Classify(err))

	// An explicit tag wins over any substring the message happens to contain.
	err = WithKind(KindFatal, errors.New("network is fine, this is fatal anyway"))
	assert.Equal(t, KindFatal, Classify(err))
}

func TestClassifySentinels(t *testing.T) {
	assert.Equal(t, KindSigningRejected, Classify(errors.Wrap(ErrSigningRejected, "sign")))
	assert.Equal(t, KindSigningRejected, Classify(ErrSigningUnsupported))
	assert.Equal(t, KindQuoteStale, Classify(ErrQuoteStale))
	assert.Equal(t, KindVerificationTimeout, Classify(ErrVerificationTimeout))
	assert.Equal(t, KindStatusTimeout, Classify(ErrStatusTimeout))
}

func TestKindRetryable(t *testing.T) {
	assert.True(t, KindNotReady.Retryable())
	assert.True(t, KindTransient.Retryable())
	assert.False(t, KindDuplicateAuthorization.Retryable())
	assert.False(t, KindFatal.Retryable())
	assert.False(t, KindVerificationTimeout.Retryable())
}
