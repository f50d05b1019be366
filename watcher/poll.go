package watcher

import (
	"context"
	"time"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
)

const (
	defaultUTXOPollInterval = 15 * time.Second
	defaultUTXOPollTimeout  = 600 * time.Second
)

// UTXO is one unspent output at the watched address.
type UTXO struct {
	TxID      string
	Vout      uint32
	ValueSats int64
	Confirmed bool
}

// UTXOSource lists the current unspent outputs of an address.
type UTXOSource interface {
	ListUnspent(ctx context.Context, address string) ([]UTXO, error)
}

// PollWatcher detects an inbound Bitcoin payment by polling the recipient
// address's UTXO set at a fixed interval until a confirmed output of
// sufficient value appears or the wall-clock deadline passes.
//
// Match policy: the first confirmed output with value >= the expected
// amount wins. Over-payment is accepted as valid (documented product
// policy); under-payment and unconfirmed outputs never match. Transient
// read errors are logged and retried on the next tick.
type PollWatcher struct {
	source   UTXOSource
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
}

func NewPollWatcher(source UTXOSource, interval, timeout time.Duration, log logger.Logger) *PollWatcher {
	if interval <= 0 {
		interval = defaultUTXOPollInterval
	}
	if timeout <= 0 {
		timeout = defaultUTXOPollTimeout
	}
	return &PollWatcher{source: source, interval: interval, timeout: timeout, log: log}
}

func (w *PollWatcher) Chain() types.Chain { return types.ChainBitcoin }

func (w *PollWatcher) Wait(ctx context.Context, tx *types.SubmittedTransaction) *types.ConfirmationResult {
	ref, ok := tx.Ref.(types.BitcoinRef)
	if !ok {
		return failed(tx.TxID, types.NewError(types.ErrUnexpected, "submitted transaction carries no payment reference"))
	}

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		utxos, err := w.source.ListUnspent(ctx, ref.Address)
		if err != nil {
			w.log.Warn("utxo lookup failed, retrying next interval", map[string]any{
				"address": ref.Address,
				"error":   err.Error(),
			})
		} else if match := matchUTXO(utxos, ref.ExpectedSats); match != nil {
			w.log.Info("inbound payment detected", map[string]any{
				"address": ref.Address,
				"txid":    match.TxID,
				"sats":    match.ValueSats,
			})
			return confirmed(match.TxID)
		}

		select {
		case <-ctx.Done():
			return timedOut(tx.TxID, "payment watch cancelled")
		case <-deadline.C:
			return timedOut(tx.TxID, "no confirmed payment arrived before the deadline")
		case <-ticker.C:
		}
	}
}

// matchUTXO returns the first confirmed output covering the expected
// amount, or nil.
func matchUTXO(utxos []UTXO, expectedSats int64) *UTXO {
	for i := range utxos {
		u := &utxos[i]
		if u.Confirmed && u.ValueSats >= expectedSats {
			return u
		}
	}
	return nil
}
