// Package payflow submits and confirms payments across multiple chains
// behind one contract: validate the request, submit through the caller's
// wallet capability, watch the chain until a terminal status, and return a
// single normalized outcome. Failures never escape Pay as errors or
// panics; they become PaymentOutcome envelopes.
package payflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/block-vision/sui-go-sdk/sui"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openpay-labs/payflow/adapters"
	"github.com/openpay-labs/payflow/intent"
	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/metrics"
	"github.com/openpay-labs/payflow/store"
	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/watcher"
)

// Stage is one state of the payment pipeline. Transitions are strictly
// VALIDATING -> SUBMITTING -> CONFIRMING -> SUCCEEDED|FAILED; FAILED is
// reachable from any stage, no stage is skipped.
type Stage string

const (
	StageValidating Stage = "VALIDATING"
	StageSubmitting Stage = "SUBMITTING"
	StageConfirming Stage = "CONFIRMING"
	StageSucceeded  Stage = "SUCCEEDED"
	StageFailed     Stage = "FAILED"
)

// StageEvent is emitted once per stage entry. Events are an observation
// hook only; correctness never depends on their delivery.
type StageEvent struct {
	PaymentID string
	Stage     Stage
	Message   string

	// PaymentURI is set on the CONFIRMING event of inbound flows
	// (Bitcoin) so the caller can render a QR code while the watcher
	// polls. Empty for wallet-submitted chains.
	PaymentURI string

	At time.Time
}

// PayRequest describes one payment. Progress, when set, receives stage
// events via non-blocking sends; a slow receiver misses events rather than
// stalling the payment.
type PayRequest struct {
	Chain     types.Chain
	Recipient string
	Amount    decimal.Decimal
	Token     *types.TokenInfo
	Memo      string
	Progress  chan<- StageEvent
}

// Service sequences builder, adapter, and watcher for each payment.
// Concurrent Pay calls are safe: each payment owns its own intent and the
// registries are read-only after setup. The wallet capability inside an
// adapter is exclusively owned by one payment for the duration of its Pay
// call.
type Service struct {
	env      types.NetworkEnv
	builder  *intent.Builder
	adapters map[types.Chain]adapters.Adapter
	watchers map[types.Chain]watcher.Watcher
	store    store.Store
	log      logger.Logger
	metrics  metrics.Recorder
	timeout  time.Duration
}

// New creates a payment service for the given network environment.
func New(env types.NetworkEnv, opts ...Option) *Service {
	s := &Service{
		env:      env,
		builder:  intent.NewBuilder(env),
		adapters: make(map[types.Chain]adapters.Adapter),
		watchers: make(map[types.Chain]watcher.Watcher),
		store:    store.NewMemoryStore(),
		log:      logger.Noop{},
		metrics:  metrics.NoopRecorder{},
		timeout:  15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterAdapter wires a chain adapter. Registration is not safe
// concurrently with Pay; do all setup first.
func (s *Service) RegisterAdapter(a adapters.Adapter) {
	s.adapters[a.Chain()] = a
}

// RegisterWatcher wires a confirmation watcher.
func (s *Service) RegisterWatcher(w watcher.Watcher) {
	s.watchers[w.Chain()] = w
}

// AddSolanaNative wires the native-SOL backend against an RPC endpoint.
func (s *Service) AddSolanaNative(rpcURL string, wallet adapters.SolanaWallet) {
	client := rpc.New(rpcURL)
	s.RegisterAdapter(adapters.NewSolanaAdapter(wallet, adapters.NewSolanaReader(client), s.log))
	s.RegisterWatcher(watcher.NewSolanaWatcher(types.ChainSolNative, watcher.NewSolanaStatusReader(client), 0, s.log))
}

// AddSolanaSPL wires the SPL-token backend against an RPC endpoint.
func (s *Service) AddSolanaSPL(rpcURL string, wallet adapters.SolanaWallet, createRecipientATA bool) {
	client := rpc.New(rpcURL)
	s.RegisterAdapter(adapters.NewSolanaSPLAdapter(wallet, adapters.NewSolanaReader(client), createRecipientATA, s.log))
	s.RegisterWatcher(watcher.NewSolanaWatcher(types.ChainSolSPL, watcher.NewSolanaStatusReader(client), 0, s.log))
}

// AddBitcoin wires the inbound-payment backend against an Esplora API.
func (s *Service) AddBitcoin(apiURL string, pollInterval, timeout time.Duration) {
	s.RegisterAdapter(adapters.NewBitcoinAdapter())
	s.RegisterWatcher(watcher.NewPollWatcher(watcher.NewEsploraSource(apiURL), pollInterval, timeout, s.log))
}

// AddSui wires the Sui backend against an RPC endpoint.
func (s *Service) AddSui(rpcURL string, wallet adapters.SuiWallet) {
	client := sui.NewSuiClient(rpcURL)
	s.RegisterAdapter(adapters.NewSuiAdapter(wallet, adapters.NewSuiReader(client), s.log))
	s.RegisterWatcher(watcher.NewSuiWatcher(watcher.NewSuiStatusReader(client), 0, 0, s.log))
}

// AddEVM wires the EVM backend against an RPC endpoint.
func (s *Service) AddEVM(rpcURL string, wallet adapters.EVMWallet) error {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return fmt.Errorf("failed to dial EVM endpoint: %w", err)
	}
	s.RegisterAdapter(adapters.NewEVMAdapter(wallet, adapters.NewEVMReader(client), s.log))
	s.RegisterWatcher(watcher.NewEVMWatcher(watcher.NewEVMReceiptReader(client), 0, 0, s.log))
	return nil
}

// Pay runs one payment to a terminal outcome. It never panics and never
// returns an error: every failure is normalized into the outcome envelope.
// A failed payment is not retried; callers invoke Pay again, which
// produces an independent submission (no deduplication).
func (s *Service) Pay(ctx context.Context, req PayRequest) (outcome *types.PaymentOutcome) {
	id := uuid.NewString()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("payment panicked", map[string]any{"payment_id": id, "panic": fmt.Sprint(r)})
			outcome = s.fail(req, id, types.Errorf(types.ErrUnexpected, "internal failure: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.emit(req, id, StageValidating, "Validating payment details")
	it, err := s.builder.Build(req.Chain, req.Recipient, req.Amount, req.Token)
	if err != nil {
		return s.fail(req, id, err)
	}
	it.Memo = req.Memo

	adapter, ok := s.adapters[req.Chain]
	if !ok {
		return s.fail(req, id, types.Errorf(types.ErrUnexpected, "no adapter registered for chain %s", req.Chain))
	}
	w, ok := s.watchers[req.Chain]
	if !ok {
		return s.fail(req, id, types.Errorf(types.ErrUnexpected, "no watcher registered for chain %s", req.Chain))
	}

	s.emit(req, id, StageSubmitting, "Submitting transaction")
	submitStart := time.Now()
	submitted, err := adapter.Submit(ctx, it)
	if err != nil {
		return s.fail(req, id, err)
	}
	s.metrics.ObserveLatency("submit", time.Since(submitStart), map[string]string{
		metrics.LabelChain: req.Chain.String(),
	})

	confirmEvent := StageEvent{Stage: StageConfirming, Message: "Waiting for confirmation"}
	if ref, ok := submitted.Ref.(types.BitcoinRef); ok {
		confirmEvent.Message = "Waiting for an inbound payment"
		confirmEvent.PaymentURI = ref.PaymentURI
	}
	s.emitEvent(req, id, confirmEvent)
	confirmStart := time.Now()
	result := w.Wait(ctx, submitted)
	s.metrics.ObserveLatency("confirm", time.Since(confirmStart), map[string]string{
		metrics.LabelChain: req.Chain.String(),
	})

	if result.Status != types.StatusConfirmed {
		fe := result.Err
		if fe == nil {
			fe = types.NewError(types.ErrConfirmationFailed, "confirmation did not succeed")
		}
		return s.fail(req, id, fe)
	}

	outcome = &types.PaymentOutcome{
		Success:     true,
		TxID:        result.TxID,
		ExplorerURL: req.Chain.ExplorerURL(s.env, result.TxID),
		Amount:      req.Amount,
		Recipient:   it.Recipient,
		Chain:       req.Chain,
		Token:       tokenSymbol(req.Token),
		Timestamp:   time.Now().UTC(),
	}
	s.persist(ctx, outcome)

	s.metrics.IncCounter(metrics.MetricPayments, map[string]string{
		metrics.LabelChain:  req.Chain.String(),
		metrics.LabelStatus: "succeeded",
	})
	s.emit(req, id, StageSucceeded, "Payment confirmed")
	s.log.Info("payment succeeded", map[string]any{
		"payment_id": id,
		"chain":      req.Chain.String(),
		"txid":       result.TxID,
		"elapsed":    time.Since(started).String(),
	})
	return outcome
}

func (s *Service) fail(req PayRequest, id string, err error) *types.PaymentOutcome {
	pe := types.AsError(err)

	s.metrics.IncCounter(metrics.MetricPayments, map[string]string{
		metrics.LabelChain:  req.Chain.String(),
		metrics.LabelStatus: "failed",
	})
	s.emit(req, id, StageFailed, pe.UserMessage())
	s.log.Warn("payment failed", map[string]any{
		"payment_id": id,
		"chain":      req.Chain.String(),
		"kind":       string(pe.Kind),
		"error":      pe.Error(),
	})

	return &types.PaymentOutcome{
		Success:   false,
		Amount:    req.Amount,
		Recipient: req.Recipient,
		Chain:     req.Chain,
		Token:     tokenSymbol(req.Token),
		Timestamp: time.Now().UTC(),
		Error:     pe.UserMessage(),
		ErrorKind: pe.Kind,
	}
}

// persist writes the audit record. Persistence is a side effect, not a
// correctness requirement, so failures are logged and swallowed.
func (s *Service) persist(ctx context.Context, outcome *types.PaymentOutcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		s.log.Error("outcome marshal failed", map[string]any{"error": err.Error()})
		return
	}
	if err := s.store.Put(ctx, outcome.AuditKey(), data); err != nil {
		s.log.Error("audit record write failed", map[string]any{
			"key":   outcome.AuditKey(),
			"error": err.Error(),
		})
	}
}

func (s *Service) emit(req PayRequest, id string, stage Stage, message string) {
	s.emitEvent(req, id, StageEvent{Stage: stage, Message: message})
}

func (s *Service) emitEvent(req PayRequest, id string, event StageEvent) {
	if req.Progress == nil {
		return
	}
	event.PaymentID = id
	event.At = time.Now().UTC()
	select {
	case req.Progress <- event:
	default:
	}
}

func tokenSymbol(token *types.TokenInfo) string {
	if token == nil {
		return ""
	}
	return token.Symbol
}
