package adapters

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/utils"
)

// BitcoinAdapter handles the inbound-payment model: the payer settles from
// an external wallet using the payment URI, so there is no wallet
// capability to sign with. Submit produces the reference the poll watcher
// matches UTXOs against; the transaction id is filled in on match.
type BitcoinAdapter struct{}

func NewBitcoinAdapter() *BitcoinAdapter { return &BitcoinAdapter{} }

func (a *BitcoinAdapter) Chain() types.Chain { return types.ChainBitcoin }

func (a *BitcoinAdapter) Submit(ctx context.Context, it *types.PaymentIntent) (*types.SubmittedTransaction, error) {
	base, err := utils.ToBaseUnits(it.Amount, it.Chain.NativeDecimals())
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidAmount, "amount below one satoshi", err)
	}
	sats := btcutil.Amount(base.Int64())

	return &types.SubmittedTransaction{
		Chain:       it.Chain,
		SubmittedAt: time.Now().UTC(),
		Ref: types.BitcoinRef{
			Address:      it.Recipient,
			ExpectedSats: int64(sats),
			PaymentURI:   utils.PaymentURI(it.Chain.URIScheme(), it.Recipient, it.Amount),
		},
	}, nil
}
