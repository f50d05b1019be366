package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	base, err := ToBaseUnits(decimal.RequireFromString("0.01"), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), base.Int64())

	base, err = ToBaseUnits(decimal.RequireFromString("1.5"), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(150_000_000), base.Int64())
}

func TestToBaseUnitsRejectsFractionalBaseUnit(t *testing.T) {
	_, err := ToBaseUnits(decimal.RequireFromString("0.0000000001"), 9)
	require.Error(t, err)
}

func TestFromBaseUnitsRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("2.345678")
	base, err := ToBaseUnits(amount, 6)
	require.NoError(t, err)
	assert.True(t, amount.Equal(FromBaseUnits(base, 6)))
}

func TestConvertDecimals(t *testing.T) {
	// 1.5 at 9 decimals -> 6 decimals
	got := ConvertDecimals(big.NewInt(1_500_000_000), 9, 6)
	assert.Equal(t, int64(1_500_000), got.Int64())

	// back up
	got = ConvertDecimals(big.NewInt(1_500_000), 6, 9)
	assert.Equal(t, int64(1_500_000_000), got.Int64())

	// truncation toward zero
	got = ConvertDecimals(big.NewInt(1_234), 3, 0)
	assert.Equal(t, int64(1), got.Int64())
}

func TestPaymentURI(t *testing.T) {
	uri := PaymentURI("bitcoin", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", decimal.RequireFromString("0.0015"))
	assert.Equal(t, "bitcoin:1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa?amount=0.0015", uri)
}
