package watcher

import (
	"context"
	"time"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/sui"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
)

const (
	defaultSuiPollInterval = 3 * time.Second
	defaultSuiPollTimeout  = 120 * time.Second
)

// SuiTransactionStatus is a normalized transaction block status snapshot.
type SuiTransactionStatus struct {
	Found   bool
	Success bool
	Message string
}

// SuiStatusReader is the read API the Sui watcher consumes.
type SuiStatusReader interface {
	TransactionStatus(ctx context.Context, digest string) (SuiTransactionStatus, error)
}

type rpcSuiStatusReader struct {
	client sui.ISuiAPI
}

// NewSuiStatusReader wraps a sui-go-sdk client as a SuiStatusReader.
func NewSuiStatusReader(client sui.ISuiAPI) SuiStatusReader {
	return &rpcSuiStatusReader{client: client}
}

func (r *rpcSuiStatusReader) TransactionStatus(ctx context.Context, digest string) (SuiTransactionStatus, error) {
	resp, err := r.client.SuiGetTransactionBlock(ctx, models.SuiGetTransactionBlockRequest{
		Digest:  digest,
		Options: models.SuiTransactionBlockOptions{ShowEffects: true},
	})
	if err != nil {
		// The node reports unknown digests as errors; treat as not found
		// and let the poll loop continue until the deadline.
		return SuiTransactionStatus{}, err
	}

	status := SuiTransactionStatus{Found: true}
	status.Success = resp.Effects.Status.Status == "success"
	status.Message = resp.Effects.Status.Error
	return status, nil
}

// SuiWatcher polls a transaction block digest until execution is reported
// or a wall-clock deadline passes.
type SuiWatcher struct {
	reader   SuiStatusReader
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
}

func NewSuiWatcher(reader SuiStatusReader, interval, timeout time.Duration, log logger.Logger) *SuiWatcher {
	if interval <= 0 {
		interval = defaultSuiPollInterval
	}
	if timeout <= 0 {
		timeout = defaultSuiPollTimeout
	}
	return &SuiWatcher{reader: reader, interval: interval, timeout: timeout, log: log}
}

func (w *SuiWatcher) Chain() types.Chain { return types.ChainSui }

func (w *SuiWatcher) Wait(ctx context.Context, tx *types.SubmittedTransaction) *types.ConfirmationResult {
	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		status, err := w.reader.TransactionStatus(ctx, tx.TxID)
		if err != nil {
			w.log.Warn("transaction status lookup failed, retrying next interval", map[string]any{
				"digest": tx.TxID,
				"error":  err.Error(),
			})
		} else if status.Found {
			if status.Success {
				return confirmed(tx.TxID)
			}
			return failed(tx.TxID, types.Errorf(types.ErrConfirmationFailed,
				"transaction failed on chain: %s", status.Message))
		}

		select {
		case <-ctx.Done():
			return timedOut(tx.TxID, "confirmation wait cancelled")
		case <-deadline.C:
			return timedOut(tx.TxID, "transaction was not executed before the deadline")
		case <-ticker.C:
		}
	}
}
