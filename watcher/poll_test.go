package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
)

// scriptedUTXOSource replays one response per poll, repeating the last
// entry once the script runs out.
type scriptedUTXOSource struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	utxos []UTXO
	err   error
}

func (s *scriptedUTXOSource) ListUnspent(ctx context.Context, address string) ([]UTXO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	r := s.responses[i]
	return r.utxos, r.err
}

func (s *scriptedUTXOSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func btcTx(sats int64) *types.SubmittedTransaction {
	return &types.SubmittedTransaction{
		Chain:       types.ChainBitcoin,
		SubmittedAt: time.Now(),
		Ref: types.BitcoinRef{
			Address:      "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			ExpectedSats: sats,
		},
	}
}

func TestPollWatcherConfirmsOnlyAfterConfirmedOutput(t *testing.T) {
	source := &scriptedUTXOSource{responses: []scriptedResponse{
		{utxos: nil},
		{utxos: []UTXO{{TxID: "aaa", ValueSats: 5_000, Confirmed: false}}},
		{utxos: []UTXO{{TxID: "aaa", ValueSats: 5_000, Confirmed: false}}},
		{utxos: []UTXO{{TxID: "aaa", ValueSats: 5_000, Confirmed: true}}},
	}}

	w := NewPollWatcher(source, 5*time.Millisecond, time.Second, logger.Noop{})
	result := w.Wait(context.Background(), btcTx(5_000))

	require.Equal(t, types.StatusConfirmed, result.Status)
	assert.Equal(t, "aaa", result.TxID)
	// The unconfirmed sightings in the first three polls must not confirm.
	assert.GreaterOrEqual(t, source.callCount(), 4)
}

func TestPollWatcherAcceptsOverPayment(t *testing.T) {
	source := &scriptedUTXOSource{responses: []scriptedResponse{
		{utxos: []UTXO{{TxID: "big", ValueSats: 9_999, Confirmed: true}}},
	}}

	w := NewPollWatcher(source, 5*time.Millisecond, time.Second, logger.Noop{})
	result := w.Wait(context.Background(), btcTx(5_000))

	require.Equal(t, types.StatusConfirmed, result.Status)
	assert.Equal(t, "big", result.TxID)
}

func TestPollWatcherNeverAcceptsUnderPayment(t *testing.T) {
	source := &scriptedUTXOSource{responses: []scriptedResponse{
		{utxos: []UTXO{{TxID: "small", ValueSats: 4_999, Confirmed: true}}},
	}}

	w := NewPollWatcher(source, 5*time.Millisecond, 50*time.Millisecond, logger.Noop{})
	result := w.Wait(context.Background(), btcTx(5_000))

	require.Equal(t, types.StatusTimedOut, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.ErrConfirmationTimedOut, result.Err.Kind)
}

func TestPollWatcherTimesOutAtDeadlineNotBefore(t *testing.T) {
	source := &scriptedUTXOSource{responses: []scriptedResponse{{utxos: nil}}}

	timeout := 60 * time.Millisecond
	w := NewPollWatcher(source, 5*time.Millisecond, timeout, logger.Noop{})

	start := time.Now()
	result := w.Wait(context.Background(), btcTx(5_000))
	elapsed := time.Since(start)

	require.Equal(t, types.StatusTimedOut, result.Status)
	assert.GreaterOrEqual(t, elapsed, timeout)
}

func TestPollWatcherToleratesTransientErrors(t *testing.T) {
	source := &scriptedUTXOSource{responses: []scriptedResponse{
		{err: errors.New("rpc unavailable")},
		{err: errors.New("rpc unavailable")},
		{utxos: []UTXO{{TxID: "ok", ValueSats: 5_000, Confirmed: true}}},
	}}

	w := NewPollWatcher(source, 5*time.Millisecond, time.Second, logger.Noop{})
	result := w.Wait(context.Background(), btcTx(5_000))

	require.Equal(t, types.StatusConfirmed, result.Status)
	assert.Equal(t, "ok", result.TxID)
}

func TestPollWatcherStopsOnCancellation(t *testing.T) {
	source := &scriptedUTXOSource{responses: []scriptedResponse{{utxos: nil}}}

	w := NewPollWatcher(source, 10*time.Millisecond, time.Minute, logger.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *types.ConfirmationResult, 1)
	go func() { done <- w.Wait(ctx, btcTx(5_000)) }()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case result := <-done:
		require.Equal(t, types.StatusTimedOut, result.Status)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("watcher did not stop promptly after cancellation")
	}
}

func TestMatchUTXOFirstMatchWins(t *testing.T) {
	utxos := []UTXO{
		{TxID: "under", ValueSats: 100, Confirmed: true},
		{TxID: "unconfirmed", ValueSats: 10_000, Confirmed: false},
		{TxID: "first", ValueSats: 5_000, Confirmed: true},
		{TxID: "second", ValueSats: 6_000, Confirmed: true},
	}

	match := matchUTXO(utxos, 5_000)
	require.NotNil(t, match)
	assert.Equal(t, "first", match.TxID)
}
