package adapters

import (
	"context"
	"math/big"
	"time"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/sui"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/utils"
)

// suiGasReserveMist is the headroom kept for gas when checking the sender
// balance.
const suiGasReserveMist = 10_000_000

// SuiWallet is the signing capability for Sui payments. The wallet builds
// and executes the transfer (mirroring signAndExecuteTransactionBlock) and
// returns the transaction block digest.
type SuiWallet interface {
	Wallet
	SignAndSend(ctx context.Context, recipient string, mist uint64) (string, error)
}

// SuiReader is the read-only chain API the Sui adapter consumes.
type SuiReader interface {
	Balance(ctx context.Context, owner string) (*big.Int, error)
}

type suiReader struct {
	client sui.ISuiAPI
}

// NewSuiReader wraps a sui-go-sdk client as a SuiReader.
func NewSuiReader(client sui.ISuiAPI) SuiReader {
	return &suiReader{client: client}
}

func (r *suiReader) Balance(ctx context.Context, owner string) (*big.Int, error) {
	resp, err := r.client.SuiXGetBalance(ctx, models.SuiXGetBalanceRequest{
		Owner:    owner,
		CoinType: "0x2::sui::SUI",
	})
	if err != nil {
		return nil, err
	}
	total, ok := new(big.Int).SetString(resp.TotalBalance, 10)
	if !ok {
		total = big.NewInt(0)
	}
	return total, nil
}

// SuiAdapter submits native SUI transfers.
type SuiAdapter struct {
	wallet SuiWallet
	reader SuiReader
	log    logger.Logger
}

func NewSuiAdapter(wallet SuiWallet, reader SuiReader, log logger.Logger) *SuiAdapter {
	return &SuiAdapter{wallet: wallet, reader: reader, log: log}
}

func (a *SuiAdapter) Chain() types.Chain { return types.ChainSui }

func (a *SuiAdapter) Submit(ctx context.Context, it *types.PaymentIntent) (*types.SubmittedTransaction, error) {
	if !a.wallet.Connected() {
		return nil, types.NewError(types.ErrWalletNotConnected, "Sui wallet is not connected")
	}

	mist, err := utils.ToBaseUnits(it.Amount, it.Chain.NativeDecimals())
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidAmount, "amount below one MIST", err)
	}

	balance, err := a.reader.Balance(ctx, a.wallet.Address())
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "balance lookup failed", err)
	}
	required := new(big.Int).Add(mist, big.NewInt(suiGasReserveMist))
	if balance.Cmp(required) < 0 {
		return nil, types.Errorf(types.ErrInsufficientFunds,
			"balance %s MIST is below %s plus gas", balance, mist)
	}

	digest, err := a.wallet.SignAndSend(ctx, it.Recipient, mist.Uint64())
	if err != nil {
		return nil, submissionError(err)
	}

	a.log.Info("sui transfer submitted", map[string]any{
		"digest": digest,
		"mist":   mist.Uint64(),
	})

	return &types.SubmittedTransaction{
		Chain:       it.Chain,
		TxID:        digest,
		SubmittedAt: time.Now().UTC(),
		Ref:         types.SuiRef{Digest: digest},
	}, nil
}
