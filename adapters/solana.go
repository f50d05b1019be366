package adapters

import (
	"context"
	"errors"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/utils"
)

// solanaFeeReserveLamports is the headroom kept for the transaction fee
// when checking the sender balance.
const solanaFeeReserveLamports = 5_000

// SolanaWallet is the signing capability for Solana payments.
type SolanaWallet interface {
	Wallet
	PublicKey() solana.PublicKey
	SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// SolanaReader is the read-only chain API the Solana adapters consume.
type SolanaReader interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error)
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

type rpcSolanaReader struct {
	client *rpc.Client
}

// NewSolanaReader wraps a solana-go RPC client as a SolanaReader.
func NewSolanaReader(client *rpc.Client) SolanaReader {
	return &rpcSolanaReader{client: client}
}

func (r *rpcSolanaReader) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := r.client.GetBalance(ctx, owner, rpc.CommitmentFinalized)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

func (r *rpcSolanaReader) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	out, err := r.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, 0, err
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

func (r *rpcSolanaReader) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	out, err := r.client.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out != nil && out.Value != nil, nil
}

func (r *rpcSolanaReader) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	out, err := r.client.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentFinalized)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(out.Value.Amount, 10, 64)
}

func (r *rpcSolanaReader) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	out, err := r.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, err
	}
	var mintData token.Mint
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&mintData); err != nil {
		return 0, err
	}
	return mintData.Decimals, nil
}

// SolanaAdapter submits native SOL transfers.
type SolanaAdapter struct {
	wallet SolanaWallet
	reader SolanaReader
	log    logger.Logger
}

func NewSolanaAdapter(wallet SolanaWallet, reader SolanaReader, log logger.Logger) *SolanaAdapter {
	return &SolanaAdapter{wallet: wallet, reader: reader, log: log}
}

func (a *SolanaAdapter) Chain() types.Chain { return types.ChainSolNative }

func (a *SolanaAdapter) Submit(ctx context.Context, it *types.PaymentIntent) (*types.SubmittedTransaction, error) {
	if !a.wallet.Connected() {
		return nil, types.NewError(types.ErrWalletNotConnected, "Solana wallet is not connected")
	}

	lamports, err := utils.ToBaseUnits(it.Amount, it.Chain.NativeDecimals())
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidAmount, "amount below one lamport", err)
	}

	sender := a.wallet.PublicKey()
	balance, err := a.reader.Balance(ctx, sender)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "balance lookup failed", err)
	}
	if balance < lamports.Uint64()+solanaFeeReserveLamports {
		return nil, types.Errorf(types.ErrInsufficientFunds,
			"balance %d lamports is below %d plus fees", balance, lamports.Uint64())
	}

	// Fetch the blockhash immediately before signing; its height ceiling
	// is the watcher's expiry reference.
	blockhash, lastValid, err := a.reader.LatestBlockhash(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "blockhash fetch failed", err)
	}

	recipient := solana.MustPublicKeyFromBase58(it.Recipient)
	transferIx := system.NewTransferInstruction(lamports.Uint64(), sender, recipient).Build()

	tx, err := solana.NewTransactionBuilder().
		AddInstruction(transferIx).
		SetRecentBlockHash(blockhash).
		SetFeePayer(sender).
		Build()
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "transaction build failed", err)
	}

	sig, err := a.wallet.SignAndSend(ctx, tx)
	if err != nil {
		return nil, submissionError(err)
	}

	a.log.Info("solana transfer submitted", map[string]any{
		"signature": sig.String(),
		"lamports":  lamports.Uint64(),
	})

	return &types.SubmittedTransaction{
		Chain:       it.Chain,
		TxID:        sig.String(),
		SubmittedAt: time.Now().UTC(),
		Ref: types.SolanaRef{
			Blockhash:            blockhash.String(),
			LastValidBlockHeight: lastValid,
		},
	}, nil
}
