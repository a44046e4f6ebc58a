package errors

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// NotReadySentinel is the reserved error code the backend uses when it has
// not yet observed the referenced source-ledger transaction with sufficient
// confirmation. The backend may report the condition either as a structured
// error code or embedded in an error message, so classification checks both.
const NotReadySentinel = "TRANSACTION_NOT_READY"

// Kind is the fixed taxonomy every backend and provider error is normalized
// into. Classification by substring matching is a deliberate translation
// boundary: Classify is the only place the raw error text is interpreted.
type Kind int

const (
	// KindFatal is a terminal, non-retryable failure with no more specific
	// classification.
	KindFatal Kind = iota
	// KindNotReady means the backend has not observed the source transaction
	// yet. Retryable until attempts are exhausted.
	KindNotReady
	// KindTransient is a network/timeout class failure, retryable with the
	// same policy as KindNotReady.
	KindTransient
	// KindDuplicateAuthorization means the backend rejected reuse of a
	// signature/reference pair. Non-retryable and surfaced distinctly: it is
	// a security signal, not a generic failure.
	KindDuplicateAuthorization
	// KindSigningRejected means the user declined to sign or the wallet
	// lacks the capability. Non-retryable and user-facing.
	KindSigningRejected
	// KindQuoteStale means the computed receive amount diverged from the
	// signed amount beyond tolerance. Forces a fresh quote+sign cycle.
	KindQuoteStale
	// KindVerificationTimeout means the readiness retry budget was exhausted
	// while the backend still had not observed the source transaction.
	KindVerificationTimeout
	// KindStatusTimeout means status polling exhausted its budget without a
	// terminal state. The backend-side request may still resolve later.
	KindStatusTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotReady:
		return "NotReady"
	case KindTransient:
		return "Transient"
	case KindDuplicateAuthorization:
		return "DuplicateAuthorization"
	case KindSigningRejected:
		return "SigningRejected"
	case KindQuoteStale:
		return "QuoteStale"
	case KindVerificationTimeout:
		return "VerificationTimeout"
	case KindStatusTimeout:
		return "StatusTimeout"
	default:
		return "Fatal"
	}
}

// Retryable reports whether the readiness retry loop may re-ask after this
// kind of failure.
func (k Kind) Retryable() bool {
	return k == KindNotReady || k == KindTransient
}

// Coded is implemented by errors that carry a structured backend error code
// in addition to their message.
type Coded interface {
	ErrorCode() string
}

// kindError tags an error with an explicit Kind, short-circuiting substring
// classification.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Cause() error  { return e.err }

// WithKind tags err with an explicit kind.
func WithKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Kindf creates a new error of the given kind.
func Kindf(kind Kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, err: errors.Errorf(format, args...)}
}

var duplicateMarkers = []string{
	"already been used",
	"already used",
	"already processed",
	"duplicate",
}

var transientMarkers = []string{
	"network",
	"timeout",
	"timed out",
	"fetch",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
}

var notReadyMarkers = []string{
	strings.ToLower(NotReadySentinel),
	"transaction not ready",
}

// Classify maps any backend or provider error onto the fixed Kind taxonomy.
// It honors explicit tags first, then structured error codes, then falls back
// to case-insensitive substring matching on the error text, since the backend
// may report a condition either way.
func Classify(err error) Kind {
	if err == nil {
		return KindFatal
	}

	var tagged *kindError
	if errors.As(err, &tagged) {
		return tagged.kind
	}

	// Caller abort is never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindFatal
	}

	switch {
	case errors.Is(err, ErrSigningRejected), errors.Is(err, ErrSigningUnsupported):
		return KindSigningRejected
	case errors.Is(err, ErrQuoteStale):
		return KindQuoteStale
	case errors.Is(err, ErrDuplicateAuthorization):
		return KindDuplicateAuthorization
	case errors.Is(err, ErrVerificationTimeout):
		return KindVerificationTimeout
	case errors.Is(err, ErrStatusTimeout):
		return KindStatusTimeout
	}

	// Structured code takes precedence over free-form text.
	var coded Coded
	if errors.As(err, &coded) {
		if kind, ok := classifyText(coded.ErrorCode()); ok {
			return kind
		}
	}

	if kind, ok := classifyText(err.Error()); ok {
		return kind
	}

	return KindFatal
}

func classifyText(text string) (Kind, bool) {
	lower := strings.ToLower(text)

	for _, marker := range notReadyMarkers {
		if strings.Contains(lower, marker) {
			return KindNotReady, true
		}
	}
	for _, marker := range duplicateMarkers {
		if strings.Contains(lower, marker) {
			return KindDuplicateAuthorization, true
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return KindTransient, true
		}
	}

	return KindFatal, false
}
