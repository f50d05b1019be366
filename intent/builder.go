// Package intent validates and normalizes transfer requests into immutable
// payment intents. Validation is pure: no network access, no side effects.
package intent

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/utils"
)

// btcDustSats is the standard relay dust threshold; outputs below it are
// unspendable in practice and rejected up front.
const btcDustSats = 546

var suiHexRE = regexp.MustCompile(`^[0-9a-fA-F]{1,64}$`)

// Builder produces validated payment intents. The Bitcoin network params
// follow the configured environment so testnet addresses are rejected on
// mainnet and vice versa.
type Builder struct {
	btcParams *chaincfg.Params
}

func NewBuilder(env types.NetworkEnv) *Builder {
	params := &chaincfg.MainNetParams
	if env == types.EnvTestnet {
		params = &chaincfg.TestNet3Params
	}
	return &Builder{btcParams: params}
}

// Build validates the recipient address and amount for the given chain and
// returns an immutable intent carrying the normalized recipient. All
// failures are tagged InvalidAddress or InvalidAmount.
func (b *Builder) Build(chain types.Chain, recipient string, amount decimal.Decimal, token *types.TokenInfo) (*types.PaymentIntent, error) {
	if !chain.Valid() {
		return nil, types.Errorf(types.ErrInvalidAddress, "unknown chain %q", chain)
	}

	normalized, err := b.normalizeRecipient(chain, strings.TrimSpace(recipient))
	if err != nil {
		return nil, err
	}

	if err := b.validateAmount(chain, amount, token); err != nil {
		return nil, err
	}

	return &types.PaymentIntent{
		Chain:     chain,
		Recipient: normalized,
		Amount:    amount,
		Token:     token,
	}, nil
}

func (b *Builder) normalizeRecipient(chain types.Chain, recipient string) (string, error) {
	if recipient == "" {
		return "", types.NewError(types.ErrInvalidAddress, "recipient address is empty")
	}

	switch {
	case chain.IsSolana():
		pk, err := solana.PublicKeyFromBase58(recipient)
		if err != nil {
			return "", types.WrapError(types.ErrInvalidAddress, "not a valid Solana address", err)
		}
		return pk.String(), nil

	case chain.IsBitcoin():
		addr, err := btcutil.DecodeAddress(recipient, b.btcParams)
		if err != nil {
			return "", types.WrapError(types.ErrInvalidAddress, "not a valid Bitcoin address", err)
		}
		if !addr.IsForNet(b.btcParams) {
			return "", types.Errorf(types.ErrInvalidAddress, "address is for the wrong Bitcoin network")
		}
		return addr.EncodeAddress(), nil

	case chain.IsSui():
		hexPart, ok := strings.CutPrefix(recipient, "0x")
		if !ok || !suiHexRE.MatchString(hexPart) {
			return "", types.NewError(types.ErrInvalidAddress, "not a valid Sui address")
		}
		// Canonical Sui form: 0x + 64 lower-case hex, left-padded.
		padded := strings.Repeat("0", 64-len(hexPart)) + strings.ToLower(hexPart)
		return "0x" + padded, nil

	case chain.IsEVM():
		if !common.IsHexAddress(recipient) {
			return "", types.NewError(types.ErrInvalidAddress, "not a valid EVM address")
		}
		checksummed := common.HexToAddress(recipient).Hex()
		// All-lower and all-upper hex are unchecksummed forms; only a mix
		// of cases asserts an EIP-55 checksum.
		hexPart := strings.TrimPrefix(strings.TrimPrefix(recipient, "0x"), "0X")
		if hasMixedCase(hexPart) && recipient != checksummed {
			return "", types.NewError(types.ErrInvalidAddress, "EIP-55 checksum mismatch")
		}
		return checksummed, nil
	}

	return "", types.Errorf(types.ErrInvalidAddress, "unsupported chain %q", chain)
}

func (b *Builder) validateAmount(chain types.Chain, amount decimal.Decimal, token *types.TokenInfo) error {
	if !amount.IsPositive() {
		return types.NewError(types.ErrInvalidAmount, "amount must be greater than zero")
	}

	decimals := chain.NativeDecimals()
	if chain == types.ChainSolSPL {
		if token == nil {
			return types.NewError(types.ErrInvalidAmount, "token metadata is required for SPL transfers")
		}
		decimals = token.Decimals
	}

	base, err := utils.ToBaseUnits(amount, decimals)
	if err != nil {
		return types.WrapError(types.ErrInvalidAmount, "amount is below the chain's smallest unit", err)
	}
	// Adapters carry base units in 64-bit integers; anything larger would
	// wrap during submission and matching.
	if !base.IsInt64() {
		return types.NewError(types.ErrInvalidAmount, "amount exceeds the chain's representable range")
	}

	min := int64(1)
	if chain.IsBitcoin() {
		min = btcDustSats
	}
	if base.Int64() < min {
		return types.Errorf(types.ErrInvalidAmount, "amount is below the minimum of %d base units", min)
	}

	return nil
}

func hasMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
