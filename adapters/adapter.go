// Package adapters turns validated payment intents into chain-specific
// transactions, submits them through a caller-held wallet capability, and
// reports a broadcast reference the watcher can follow.
//
// The wallet capability is exclusively owned by one payment for the
// duration of a Submit call; adapters issue at most one signing request
// against it and never sign concurrently.
package adapters

import (
	"context"
	"errors"

	"github.com/openpay-labs/payflow/types"
)

// Adapter submits one validated intent and reports the broadcast identifier.
type Adapter interface {
	Chain() types.Chain
	Submit(ctx context.Context, it *types.PaymentIntent) (*types.SubmittedTransaction, error)
}

// Wallet is the minimal capability every signing adapter requires. The
// chain-specific wallet interfaces embed it.
type Wallet interface {
	Connected() bool
	Address() string
}

// ErrUserRejected is the sentinel wallet implementations wrap when the user
// declines to sign. It maps to SubmissionRejected, which the caller must
// not retry; every other signing failure maps to SubmissionFailed, which is
// retry-eligible.
var ErrUserRejected = errors.New("user rejected the signing request")

func submissionError(err error) *types.Error {
	if errors.Is(err, ErrUserRejected) {
		return types.WrapError(types.ErrSubmissionRejected, "signing declined by user", err)
	}
	return types.WrapError(types.ErrSubmissionFailed, "broadcast failed", err)
}
