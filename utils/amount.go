package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a human-unit amount to the chain's smallest unit at
// the given decimal precision. Amounts with precision finer than one base
// unit are rejected rather than silently truncated.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	shifted := amount.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return shifted.BigInt(), nil
}

// FromBaseUnits converts a smallest-unit value back to human units.
func FromBaseUnits(value *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(value, -decimals)
}

// ConvertDecimals rescales a base-unit amount between two precisions,
// truncating toward zero when precision is lost.
func ConvertDecimals(amount *big.Int, fromDecimals, toDecimals int32) *big.Int {
	if fromDecimals == toDecimals {
		return new(big.Int).Set(amount)
	}

	result := new(big.Int).Set(amount)
	if fromDecimals > toDecimals {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(fromDecimals-toDecimals)), nil)
		result.Div(result, divisor)
	} else {
		multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(toDecimals-fromDecimals)), nil)
		result.Mul(result, multiplier)
	}
	return result
}
