package adapters

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/utils"
)

// SolanaSPLAdapter submits SPL token transfers. When createRecipientATA is
// set, a missing recipient associated-token-account is created in the same
// transaction (paid by the sender); otherwise the payment fails with
// RecipientAccountUnavailable.
type SolanaSPLAdapter struct {
	wallet             SolanaWallet
	reader             SolanaReader
	createRecipientATA bool
	log                logger.Logger
}

func NewSolanaSPLAdapter(wallet SolanaWallet, reader SolanaReader, createRecipientATA bool, log logger.Logger) *SolanaSPLAdapter {
	return &SolanaSPLAdapter{
		wallet:             wallet,
		reader:             reader,
		createRecipientATA: createRecipientATA,
		log:                log,
	}
}

func (a *SolanaSPLAdapter) Chain() types.Chain { return types.ChainSolSPL }

func (a *SolanaSPLAdapter) Submit(ctx context.Context, it *types.PaymentIntent) (*types.SubmittedTransaction, error) {
	if !a.wallet.Connected() {
		return nil, types.NewError(types.ErrWalletNotConnected, "Solana wallet is not connected")
	}
	if it.Token == nil || it.Token.Address == "" {
		return nil, types.NewError(types.ErrUnexpected, "SPL transfer requires token mint metadata")
	}

	mint, err := solana.PublicKeyFromBase58(it.Token.Address)
	if err != nil {
		return nil, types.WrapError(types.ErrUnexpected, "token mint is not a valid address", err)
	}

	decimals := uint8(it.Token.Decimals)
	if it.Token.Decimals <= 0 {
		decimals, err = a.reader.MintDecimals(ctx, mint)
		if err != nil {
			return nil, types.WrapError(types.ErrSubmissionFailed, "mint lookup failed", err)
		}
	}

	base, err := utils.ToBaseUnits(it.Amount, int32(decimals))
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidAmount, "amount below one token base unit", err)
	}
	amount := base.Uint64()

	sender := a.wallet.PublicKey()
	recipient := solana.MustPublicKeyFromBase58(it.Recipient)

	sourceATA, _, err := solana.FindAssociatedTokenAddress(sender, mint)
	if err != nil {
		return nil, types.WrapError(types.ErrUnexpected, "source token account derivation failed", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, types.WrapError(types.ErrUnexpected, "destination token account derivation failed", err)
	}

	sourceExists, err := a.reader.AccountExists(ctx, sourceATA)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "source token account lookup failed", err)
	}
	if !sourceExists {
		return nil, types.NewError(types.ErrInsufficientFunds, "sender has no token account for this mint")
	}

	tokenBalance, err := a.reader.TokenBalance(ctx, sourceATA)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "token balance lookup failed", err)
	}
	if tokenBalance < amount {
		return nil, types.Errorf(types.ErrInsufficientFunds,
			"token balance %d is below requested %d", tokenBalance, amount)
	}

	builder := solana.NewTransactionBuilder()

	destExists, err := a.reader.AccountExists(ctx, destATA)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "recipient account lookup failed", err)
	}
	if !destExists {
		if !a.createRecipientATA {
			return nil, types.NewError(types.ErrRecipientAccountUnavailable,
				"recipient has no associated token account")
		}
		createIx := associatedtokenaccount.NewCreateInstruction(sender, recipient, mint).Build()
		builder.AddInstruction(createIx)
		a.log.Debug("creating recipient token account", map[string]any{
			"recipient": it.Recipient,
			"mint":      mint.String(),
		})
	}

	transferIx, err := token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount).
		SetDecimals(decimals).
		SetSourceAccount(sourceATA).
		SetMintAccount(mint).
		SetDestinationAccount(destATA).
		SetOwnerAccount(sender).
		ValidateAndBuild()
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "transfer instruction build failed", err)
	}

	blockhash, lastValid, err := a.reader.LatestBlockhash(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "blockhash fetch failed", err)
	}

	tx, err := builder.
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

	a.log.Info("spl transfer submitted", map[string]any{
		"signature": sig.String(),
		"mint":      mint.String(),
		"amount":    amount,
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
