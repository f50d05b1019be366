// Package types defines the data model shared by every stage of a payment:
// the validated intent, the submitted transaction reference, the terminal
// confirmation result, and the outcome envelope returned to callers.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Chain identifies a supported chain/token-type pair.
type Chain string

const (
	ChainSolNative Chain = "SOL_NATIVE"
	ChainSolSPL    Chain = "SOL_SPL"
	ChainBitcoin   Chain = "BTC"
	ChainSui       Chain = "SUI"
	ChainEVM       Chain = "EVM"
)

// NetworkEnv selects between production and test networks. Recipient and
// token addresses are injected per environment, never compiled in.
type NetworkEnv string

const (
	EnvMainnet NetworkEnv = "mainnet"
	EnvTestnet NetworkEnv = "testnet"
)

// TokenInfo describes a non-native token (SPL mint, ERC-20 contract).
type TokenInfo struct {
	Symbol   string `json:"symbol" validate:"required"`
	Address  string `json:"address,omitempty"`
	Decimals int32  `json:"decimals" validate:"gte=0"`
}

// PaymentIntent is a validated, not-yet-submitted transfer description.
// The recipient is already normalized by the builder; downstream stages
// must not re-derive it. Immutable once built.
type PaymentIntent struct {
	Chain     Chain
	Recipient string
	Amount    decimal.Decimal
	Token     *TokenInfo
	Memo      string
}

// SolanaRef carries the blockhash context a Solana submission was built
// against. LastValidBlockHeight is the authoritative expiry for the
// confirmation wait; wall-clock time is not.
type SolanaRef struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// BitcoinRef describes an inbound payment the watcher polls for. TxID on
// the submitted transaction stays empty until a matching output is seen.
type BitcoinRef struct {
	Address      string
	ExpectedSats int64
	PaymentURI   string
}

// SuiRef carries the transaction block digest to query.
type SuiRef struct {
	Digest string
}

// SubmittedTransaction is produced by an adapter on successful broadcast
// and owned by the watcher until a terminal status. Never mutated.
type SubmittedTransaction struct {
	Chain       Chain
	TxID        string
	SubmittedAt time.Time

	// Ref holds the chain-specific handle the watcher needs
	// (SolanaRef, BitcoinRef, SuiRef; nil for EVM).
	Ref any
}

// ConfirmationStatus is a terminal status of a submitted transaction.
type ConfirmationStatus string

const (
	StatusConfirmed ConfirmationStatus = "CONFIRMED"
	StatusFailed    ConfirmationStatus = "FAILED"
	StatusTimedOut  ConfirmationStatus = "TIMED_OUT"
)

// ConfirmationResult is produced exactly once per SubmittedTransaction.
type ConfirmationResult struct {
	Status      ConfirmationStatus
	TxID        string
	Err         *Error
	ConfirmedAt *time.Time
}

// PaymentOutcome is the envelope returned to the caller and the only
// entity persisted (to the audit store, keyed by AuditKey).
type PaymentOutcome struct {
	Success     bool            `json:"success"`
	TxID        string          `json:"txId,omitempty"`
	ExplorerURL string          `json:"explorerUrl,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Recipient   string          `json:"recipient,omitempty"`
	Chain       Chain           `json:"chain"`
	Token       string          `json:"token,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Error       string          `json:"error,omitempty"`
	ErrorKind   ErrorKind       `json:"errorKind,omitempty"`
}

// AuditKey returns the persistence key for a successful outcome:
// {chain}_{token}_payment_{signature}.
func (o *PaymentOutcome) AuditKey() string {
	token := o.Token
	if token == "" {
		token = o.Chain.NativeSymbol()
	}
	return fmt.Sprintf("%s_%s_payment_%s", o.Chain, token, o.TxID)
}

// Valid reports whether c is a known chain.
func (c Chain) Valid() bool {
	switch c {
	case ChainSolNative, ChainSolSPL, ChainBitcoin, ChainSui, ChainEVM:
		return true
	}
	return false
}

func (c Chain) IsSolana() bool {
	return c == ChainSolNative || c == ChainSolSPL
}

func (c Chain) IsBitcoin() bool { return c == ChainBitcoin }

func (c Chain) IsSui() bool { return c == ChainSui }

func (c Chain) IsEVM() bool { return c == ChainEVM }

func (c Chain) String() string { return string(c) }

// NativeDecimals returns the decimal precision of the chain's native unit.
// SPL decimals come from the token's declared metadata, not from here.
func (c Chain) NativeDecimals() int32 {
	switch c {
	case ChainSolNative, ChainSolSPL:
		return 9 // lamports
	case ChainBitcoin:
		return 8 // satoshis
	case ChainSui:
		return 9 // MIST
	case ChainEVM:
		return 18 // wei
	}
	return 0
}

// NativeSymbol returns the ticker of the chain's native asset.
func (c Chain) NativeSymbol() string {
	switch c {
	case ChainSolNative, ChainSolSPL:
		return "SOL"
	case ChainBitcoin:
		return "BTC"
	case ChainSui:
		return "SUI"
	case ChainEVM:
		return "ETH"
	}
	return ""
}

// URIScheme returns the payment-URI scheme used for QR rendering.
func (c Chain) URIScheme() string {
	switch c {
	case ChainBitcoin:
		return "bitcoin"
	case ChainSolNative, ChainSolSPL:
		return "solana"
	case ChainSui:
		return "sui"
	case ChainEVM:
		return "ethereum"
	}
	return ""
}
