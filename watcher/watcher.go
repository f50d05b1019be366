// Package watcher observes chain state until a submitted transaction
// reaches a terminal status. Watchers fold every failure into the
// ConfirmationResult; nothing escapes as a Go error past Wait.
//
// Two expiry models exist and must not be conflated: the Solana watcher
// expires when the ledger's block height passes the ceiling tied to the
// submission blockhash; the polling watchers expire on a wall-clock
// deadline.
package watcher

import (
	"context"
	"time"

	"github.com/openpay-labs/payflow/types"
)

// Watcher waits for one submitted transaction to reach a terminal status.
// Wait honors ctx cancellation promptly and returns TIMED_OUT when
// cancelled before confirmation.
type Watcher interface {
	Chain() types.Chain
	Wait(ctx context.Context, tx *types.SubmittedTransaction) *types.ConfirmationResult
}

func confirmed(txid string) *types.ConfirmationResult {
	now := time.Now().UTC()
	return &types.ConfirmationResult{
		Status:      types.StatusConfirmed,
		TxID:        txid,
		ConfirmedAt: &now,
	}
}

func failed(txid string, err *types.Error) *types.ConfirmationResult {
	return &types.ConfirmationResult{
		Status: types.StatusFailed,
		TxID:   txid,
		Err:    err,
	}
}

func timedOut(txid, reason string) *types.ConfirmationResult {
	return &types.ConfirmationResult{
		Status: types.StatusTimedOut,
		TxID:   txid,
		Err:    types.NewError(types.ErrConfirmationTimedOut, reason),
	}
}
