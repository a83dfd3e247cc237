package services

import "errors"

// ErrorKind is the closed set of claim failure classes. Everything above
// KindInternal is client-facing with a stable message; KindInternal is logged
// with full context and surfaced generically.
type ErrorKind string

const (
	KindInvalidArgument         ErrorKind = "INVALID_ARGUMENT"
	KindNotFound                ErrorKind = "NOT_FOUND"
	KindInvalidState            ErrorKind = "INVALID_STATE"
	KindAlreadyApproved         ErrorKind = "ALREADY_APPROVED"
	KindInProgress              ErrorKind = "IN_PROGRESS"
	KindVerificationUnavailable ErrorKind = "VERIFICATION_UNAVAILABLE"
	KindInternal                ErrorKind = "INTERNAL"
)

// ClaimError carries a failure class plus a stable client-facing message.
type ClaimError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *ClaimError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *ClaimError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the caller may resubmit unchanged and expect a
// different outcome once the transient condition clears.
func (e *ClaimError) Retryable() bool {
	return e.Kind == KindInProgress || e.Kind == KindVerificationUnavailable
}

func claimErr(kind ErrorKind, message string) *ClaimError {
	return &ClaimError{Kind: kind, Message: message}
}

func wrapClaimErr(kind ErrorKind, message string, cause error) *ClaimError {
	return &ClaimError{Kind: kind, Message: message, cause: cause}
}

// AsClaimError extracts the typed error, folding anything unclassified into
// KindInternal.
func AsClaimError(err error) *ClaimError {
	var ce *ClaimError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClaimError{Kind: KindInternal, Message: "reward claim processing failed", cause: err}
}
