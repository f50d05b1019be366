package types

import (
	"errors"
	"fmt"
)

// ErrorKind tags every failure a payment can produce. Callers match on the
// kind with KindOf or errors.As, never on message text.
type ErrorKind string

const (
	ErrInvalidAddress              ErrorKind = "invalid_address"
	ErrInvalidAmount               ErrorKind = "invalid_amount"
	ErrWalletNotConnected          ErrorKind = "wallet_not_connected"
	ErrInsufficientFunds           ErrorKind = "insufficient_funds"
	ErrRecipientAccountUnavailable ErrorKind = "recipient_account_unavailable"
	ErrSubmissionRejected          ErrorKind = "submission_rejected"
	ErrSubmissionFailed            ErrorKind = "submission_failed"
	ErrConfirmationFailed          ErrorKind = "confirmation_failed"
	ErrConfirmationTimedOut        ErrorKind = "confirmation_timed_out"
	ErrUnexpected                  ErrorKind = "unexpected_error"
)

// Error is the tagged error type used across the module.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two payment errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NewError creates a tagged error with a fixed message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a tagged error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an underlying error, preserving it for errors.Is/As.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from any error. Unknown errors map to
// ErrUnexpected; nil maps to the empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUnexpected
}

// AsError normalizes any error into an *Error, tagging unknown ones as
// unexpected. Used at the orchestrator boundary so nothing untyped escapes.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: ErrUnexpected, Message: "unexpected error", Err: err}
}

// userMessages are the human-readable strings surfaced to callers, one per
// taxonomy entry. Raw SDK text is deliberately not included here.
var userMessages = map[ErrorKind]string{
	ErrInvalidAddress:              "The recipient address is not valid for the selected chain.",
	ErrInvalidAmount:               "The payment amount is not valid for the selected chain.",
	ErrWalletNotConnected:          "Connect a wallet before sending a payment.",
	ErrInsufficientFunds:           "The wallet balance is too low for this payment.",
	ErrRecipientAccountUnavailable: "The recipient has no token account for this asset.",
	ErrSubmissionRejected:          "The signing request was declined in the wallet.",
	ErrSubmissionFailed:            "The transaction could not be broadcast. Please try again.",
	ErrConfirmationFailed:          "The transaction was rejected on chain.",
	ErrConfirmationTimedOut:        "The transaction was not confirmed in time.",
	ErrUnexpected:                  "Something went wrong while processing the payment.",
}

// UserMessage returns the human-readable message for the error's kind.
func (e *Error) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return userMessages[ErrUnexpected]
}
