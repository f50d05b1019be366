package intent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpay-labs/payflow/types"
)

func TestBuildValidAddresses(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	tests := []struct {
		name      string
		chain     types.Chain
		recipient string
		want      string
	}{
		{
			name:      "solana base58",
			chain:     types.ChainSolNative,
			recipient: "11111111111111111111111111111111",
			want:      "11111111111111111111111111111111",
		},
		{
			name:      "bitcoin base58check",
			chain:     types.ChainBitcoin,
			recipient: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			want:      "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		},
		{
			name:      "bitcoin bech32",
			chain:     types.ChainBitcoin,
			recipient: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			want:      "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		},
		{
			name:      "evm lower case is checksummed",
			chain:     types.ChainEVM,
			recipient: "0xde709f2102306220921060314715629080e2fb77",
			want:      "0xDe709F2102306220921060314715629080e2fb77",
		},
		{
			name:      "sui short form is padded",
			chain:     types.ChainSui,
			recipient: "0x2",
			want:      "0x0000000000000000000000000000000000000000000000000000000000000002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := b.Build(tt.chain, tt.recipient, decimal.NewFromFloat(0.5), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, it.Recipient)
			assert.Equal(t, tt.chain, it.Chain)
		})
	}
}

func TestBuildInvalidAddresses(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	tests := []struct {
		name      string
		chain     types.Chain
		recipient string
	}{
		{"empty", types.ChainSolNative, ""},
		{"solana wrong alphabet", types.ChainSolNative, "0OIl1111111111111111111111111111"},
		{"solana too short", types.ChainSolNative, "abc"},
		{"bitcoin bad checksum", types.ChainBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb"},
		{"bitcoin evm-shaped", types.ChainBitcoin, "0xDe709F2102306220921060314715629080e2fb77"},
		{"evm missing prefix", types.ChainEVM, "de709f2102306220921060314715629080e2fb77"},
		{"evm too short", types.ChainEVM, "0xde709f21"},
		{"evm bad eip55 checksum", types.ChainEVM, "0xDE709f2102306220921060314715629080e2fb77"},
		{"sui not hex", types.ChainSui, "0xzz09"},
		{"sui too long", types.ChainSui, "0x" + "00000000000000000000000000000000000000000000000000000000000000021"},
		{"sui no prefix", types.ChainSui, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.chain, tt.recipient, decimal.NewFromFloat(0.5), nil)
			require.Error(t, err)
			assert.Equal(t, types.ErrInvalidAddress, types.KindOf(err))
		})
	}
}

func TestBuildRejectsTestnetAddressOnMainnet(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	_, err := b.Build(types.ChainBitcoin, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", decimal.NewFromFloat(0.5), nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidAddress, types.KindOf(err))
}

func TestBuildInvalidAmounts(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	tests := []struct {
		name   string
		chain  types.Chain
		amount decimal.Decimal
		token  *types.TokenInfo
	}{
		{"zero", types.ChainSolNative, decimal.Zero, nil},
		{"negative", types.ChainSolNative, decimal.NewFromFloat(-1), nil},
		{"below one lamport", types.ChainSolNative, decimal.RequireFromString("0.0000000001"), nil},
		{"bitcoin below dust", types.ChainBitcoin, decimal.RequireFromString("0.00000545"), nil},
		{"bitcoin sub-satoshi", types.ChainBitcoin, decimal.RequireFromString("0.000000001"), nil},
		{"spl finer than token decimals", types.ChainSolSPL, decimal.RequireFromString("0.0000001"),
			&types.TokenInfo{Symbol: "USDX", Address: "So11111111111111111111111111111111111111112", Decimals: 6}},
		{"spl missing token metadata", types.ChainSolSPL, decimal.NewFromFloat(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipient := "11111111111111111111111111111111"
			if tt.chain == types.ChainBitcoin {
				recipient = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
			}
			_, err := b.Build(tt.chain, recipient, tt.amount, tt.token)
			require.Error(t, err)
			assert.Equal(t, types.ErrInvalidAmount, types.KindOf(err))
		})
	}
}

func TestBuildRejectsAmountsBeyond64BitRange(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	tests := []struct {
		name      string
		chain     types.Chain
		recipient string
		amount    string
	}{
		// 2^63 satoshis; would wrap negative in an int64.
		{"bitcoin 2^63 sats", types.ChainBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "92233720368.54775808"},
		// 2^64 lamports; would wrap to zero in a uint64.
		{"solana 2^64 lamports", types.ChainSolNative, "11111111111111111111111111111111", "18446744073.709551616"},
		{"evm beyond int64 wei", types.ChainEVM, "0xde709f2102306220921060314715629080e2fb77", "10000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.chain, tt.recipient, decimal.RequireFromString(tt.amount), nil)
			require.Error(t, err)
			assert.Equal(t, types.ErrInvalidAmount, types.KindOf(err))
		})
	}
}

func TestBuildAcceptsUnprefixedUppercaseEVMHex(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	// All-upper hex is an unchecksummed form, same as all-lower.
	it, err := b.Build(types.ChainEVM, "0xDE709F2102306220921060314715629080E2FB77", decimal.NewFromFloat(0.5), nil)
	require.NoError(t, err)
	assert.Equal(t, "0xDe709F2102306220921060314715629080e2fb77", it.Recipient)
}

func TestBuildAcceptsDustBoundary(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	// 546 sats is the smallest accepted Bitcoin amount.
	it, err := b.Build(types.ChainBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", decimal.RequireFromString("0.00000546"), nil)
	require.NoError(t, err)
	assert.True(t, it.Amount.Equal(decimal.RequireFromString("0.00000546")))
}

func TestBuildUnknownChain(t *testing.T) {
	b := NewBuilder(types.EnvMainnet)

	_, err := b.Build(types.Chain("DOGE"), "whatever", decimal.NewFromFloat(1), nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidAddress, types.KindOf(err))
}
