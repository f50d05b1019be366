package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
)

const (
	defaultEVMPollInterval = 3 * time.Second
	defaultEVMPollTimeout  = 300 * time.Second
)

// ReceiptReader fetches a transaction receipt, returning (nil, nil) while
// the transaction is still pending.
type ReceiptReader interface {
	Receipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error)
}

type ethReceiptReader struct {
	client *ethclient.Client
}

// NewEVMReceiptReader wraps an ethclient as a ReceiptReader.
func NewEVMReceiptReader(client *ethclient.Client) ReceiptReader {
	return &ethReceiptReader{client: client}
}

func (r *ethReceiptReader) Receipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	receipt, err := r.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return receipt, err
}

// EVMWatcher polls for a transaction receipt until mined or a wall-clock
// deadline passes. A reverted receipt is a terminal FAILED.
type EVMWatcher struct {
	reader   ReceiptReader
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
}

func NewEVMWatcher(reader ReceiptReader, interval, timeout time.Duration, log logger.Logger) *EVMWatcher {
	if interval <= 0 {
		interval = defaultEVMPollInterval
	}
	if timeout <= 0 {
		timeout = defaultEVMPollTimeout
	}
	return &EVMWatcher{reader: reader, interval: interval, timeout: timeout, log: log}
}

func (w *EVMWatcher) Chain() types.Chain { return types.ChainEVM }

func (w *EVMWatcher) Wait(ctx context.Context, tx *types.SubmittedTransaction) *types.ConfirmationResult {
	hash := common.HexToHash(tx.TxID)

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		receipt, err := w.reader.Receipt(ctx, hash)
		if err != nil {
			w.log.Warn("receipt lookup failed, retrying next interval", map[string]any{
				"hash":  tx.TxID,
				"error": err.Error(),
			})
		} else if receipt != nil {
			if receipt.Status == ethtypes.ReceiptStatusSuccessful {
				return confirmed(tx.TxID)
			}
			return failed(tx.TxID, types.NewError(types.ErrConfirmationFailed, "transaction reverted"))
		}

		select {
		case <-ctx.Done():
			return timedOut(tx.TxID, "confirmation wait cancelled")
		case <-deadline.C:
			return timedOut(tx.TxID, "transaction was not mined before the deadline")
		case <-ticker.C:
		}
	}
}
