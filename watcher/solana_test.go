package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
)

type scriptedSolanaReader struct {
	mu       sync.Mutex
	statuses []SolanaSignatureStatus
	errs     []error
	calls    int

	height uint64
}

func (r *scriptedSolanaReader) SignatureStatus(ctx context.Context, sig solana.Signature) (SolanaSignatureStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.calls
	if i >= len(r.statuses) {
		i = len(r.statuses) - 1
	}
	r.calls++
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	return r.statuses[i], err
}

func (r *scriptedSolanaReader) BlockHeight(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height, nil
}

func solanaTx(lastValidHeight uint64) *types.SubmittedTransaction {
	var raw [64]byte
	copy(raw[:], "test-signature")
	sig := solana.Signature(raw)

	return &types.SubmittedTransaction{
		Chain:       types.ChainSolNative,
		TxID:        sig.String(),
		SubmittedAt: time.Now(),
		Ref: types.SolanaRef{
			Blockhash:            "4sGjMW1sUnHzSxGspuhpqLDx6wiyjNtZ",
			LastValidBlockHeight: lastValidHeight,
		},
	}
}

func TestSolanaWatcherConfirmsOnFinalized(t *testing.T) {
	reader := &scriptedSolanaReader{
		statuses: []SolanaSignatureStatus{
			{},
			{Found: true},
			{Found: true, Finalized: true},
		},
		height: 100,
	}

	w := NewSolanaWatcher(types.ChainSolNative, reader, 5*time.Millisecond, logger.Noop{})
	result := w.Wait(context.Background(), solanaTx(1_000))

	require.Equal(t, types.StatusConfirmed, result.Status)
	assert.NotNil(t, result.ConfirmedAt)
}

func TestSolanaWatcherFailsOnExecutionError(t *testing.T) {
	reader := &scriptedSolanaReader{
		statuses: []SolanaSignatureStatus{
			{Found: true, ExecutionErr: errors.New("InstructionError")},
		},
		height: 100,
	}

	w := NewSolanaWatcher(types.ChainSolNative, reader, 5*time.Millisecond, logger.Noop{})
	result := w.Wait(context.Background(), solanaTx(1_000))

	require.Equal(t, types.StatusFailed, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.ErrConfirmationFailed, result.Err.Kind)
}

func TestSolanaWatcherExpiresOnBlockHeightCeiling(t *testing.T) {
	// The cluster height is already past the blockhash ceiling, so the
	// transaction can never land.
	reader := &scriptedSolanaReader{
		statuses: []SolanaSignatureStatus{{}},
		height:   2_001,
	}

	w := NewSolanaWatcher(types.ChainSolNative, reader, 5*time.Millisecond, logger.Noop{})
	result := w.Wait(context.Background(), solanaTx(2_000))

	require.Equal(t, types.StatusTimedOut, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.ErrConfirmationTimedOut, result.Err.Kind)
}

func TestSolanaWatcherToleratesTransientRPCErrors(t *testing.T) {
	reader := &scriptedSolanaReader{
		statuses: []SolanaSignatureStatus{
			{},
			{},
			{Found: true, Finalized: true},
		},
		errs:   []error{errors.New("rpc timeout"), errors.New("rpc timeout"), nil},
		height: 100,
	}

	w := NewSolanaWatcher(types.ChainSolNative, reader, 5*time.Millisecond, logger.Noop{})
	result := w.Wait(context.Background(), solanaTx(1_000))

	require.Equal(t, types.StatusConfirmed, result.Status)
}

func TestSolanaWatcherRequiresBlockhashContext(t *testing.T) {
	w := NewSolanaWatcher(types.ChainSolNative, &scriptedSolanaReader{
		statuses: []SolanaSignatureStatus{{}},
	}, 5*time.Millisecond, logger.Noop{})

	result := w.Wait(context.Background(), &types.SubmittedTransaction{
		Chain: types.ChainSolNative,
		TxID:  "sig",
	})

	require.Equal(t, types.StatusFailed, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.ErrUnexpected, result.Err.Kind)
}
