package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
)

const defaultSolanaPollInterval = 2 * time.Second

// SolanaSignatureStatus is a normalized signature status snapshot.
type SolanaSignatureStatus struct {
	// Found is false while the cluster has not seen the signature yet.
	Found bool
	// Finalized is true once the commitment level is confirmed or finalized.
	Finalized bool
	// ExecutionErr carries the on-chain error of a processed-but-failed
	// transaction.
	ExecutionErr error
}

// SolanaStatusReader is the read API the Solana watcher consumes.
type SolanaStatusReader interface {
	SignatureStatus(ctx context.Context, signature solana.Signature) (SolanaSignatureStatus, error)
	BlockHeight(ctx context.Context) (uint64, error)
}

type rpcSolanaStatusReader struct {
	client *rpc.Client
}

// NewSolanaStatusReader wraps a solana-go RPC client as a SolanaStatusReader.
func NewSolanaStatusReader(client *rpc.Client) SolanaStatusReader {
	return &rpcSolanaStatusReader{client: client}
}

func (r *rpcSolanaStatusReader) SignatureStatus(ctx context.Context, signature solana.Signature) (SolanaSignatureStatus, error) {
	out, err := r.client.GetSignatureStatuses(ctx, true, signature)
	if err != nil {
		return SolanaSignatureStatus{}, err
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return SolanaSignatureStatus{}, nil
	}

	status := out.Value[0]
	result := SolanaSignatureStatus{Found: true}
	if status.Err != nil {
		result.ExecutionErr = fmt.Errorf("on-chain error: %v", status.Err)
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		result.Finalized = true
	}
	return result, nil
}

func (r *rpcSolanaStatusReader) BlockHeight(ctx context.Context) (uint64, error) {
	return r.client.GetBlockHeight(ctx, rpc.CommitmentFinalized)
}

// SolanaWatcher waits for a signature to finalize. Expiry is ledger
// relative: once the cluster's block height passes the ceiling tied to the
// submission blockhash, the transaction can never land and the wait ends
// in TIMED_OUT.
type SolanaWatcher struct {
	chain    types.Chain
	reader   SolanaStatusReader
	interval time.Duration
	log      logger.Logger
}

func NewSolanaWatcher(chain types.Chain, reader SolanaStatusReader, interval time.Duration, log logger.Logger) *SolanaWatcher {
	if interval <= 0 {
		interval = defaultSolanaPollInterval
	}
	return &SolanaWatcher{chain: chain, reader: reader, interval: interval, log: log}
}

func (w *SolanaWatcher) Chain() types.Chain { return w.chain }

func (w *SolanaWatcher) Wait(ctx context.Context, tx *types.SubmittedTransaction) *types.ConfirmationResult {
	ref, ok := tx.Ref.(types.SolanaRef)
	if !ok {
		return failed(tx.TxID, types.NewError(types.ErrUnexpected, "submitted transaction carries no blockhash context"))
	}

	sig, err := solana.SignatureFromBase58(tx.TxID)
	if err != nil {
		return failed(tx.TxID, types.WrapError(types.ErrUnexpected, "malformed signature", err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		status, err := w.reader.SignatureStatus(ctx, sig)
		switch {
		case err != nil:
			// Transient RPC failure: retry next tick, the height ceiling
			// bounds the overall wait.
			w.log.Warn("signature status lookup failed", map[string]any{
				"signature": tx.TxID,
				"error":     err.Error(),
			})
		case status.Found && status.ExecutionErr != nil:
			return failed(tx.TxID, types.WrapError(types.ErrConfirmationFailed,
				"transaction failed on chain", status.ExecutionErr))
		case status.Found && status.Finalized:
			return confirmed(tx.TxID)
		}

		height, err := w.reader.BlockHeight(ctx)
		if err != nil {
			w.log.Warn("block height lookup failed", map[string]any{"error": err.Error()})
		} else if height > ref.LastValidBlockHeight {
			return timedOut(tx.TxID, fmt.Sprintf(
				"block height %d passed the blockhash ceiling %d", height, ref.LastValidBlockHeight))
		}

		select {
		case <-ctx.Done():
			return timedOut(tx.TxID, "confirmation wait cancelled")
		case <-ticker.C:
		}
	}
}
