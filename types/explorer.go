package types

import "fmt"

// ExplorerURL returns a block-explorer link for a transaction identifier,
// or an empty string when the id is empty.
func (c Chain) ExplorerURL(env NetworkEnv, txid string) string {
	if txid == "" {
		return ""
	}

	testnet := env == EnvTestnet
	switch c {
	case ChainSolNative, ChainSolSPL:
		if testnet {
			return fmt.Sprintf("https://solscan.io/tx/%s?cluster=devnet", txid)
		}
		return fmt.Sprintf("https://solscan.io/tx/%s", txid)
	case ChainBitcoin:
		if testnet {
			return fmt.Sprintf("https://mempool.space/testnet/tx/%s", txid)
		}
		return fmt.Sprintf("https://mempool.space/tx/%s", txid)
	case ChainSui:
		if testnet {
			return fmt.Sprintf("https://suiscan.xyz/testnet/tx/%s", txid)
		}
		return fmt.Sprintf("https://suiscan.xyz/mainnet/tx/%s", txid)
	case ChainEVM:
		if testnet {
			return fmt.Sprintf("https://sepolia.etherscan.io/tx/%s", txid)
		}
		return fmt.Sprintf("https://etherscan.io/tx/%s", txid)
	}
	return ""
}
