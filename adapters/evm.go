package adapters

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openpay-labs/payflow/logger"
	"github.com/openpay-labs/payflow/types"
	"github.com/openpay-labs/payflow/utils"
)

// evmTransferGas is the fixed gas cost of a plain value transfer.
const evmTransferGas = 21_000

// EVMWallet is the signing capability for EVM payments.
type EVMWallet interface {
	Wallet
	Account() common.Address
	SignAndSend(ctx context.Context, tx *ethtypes.Transaction) (common.Hash, error)
}

// EVMReader is the read-only chain API the EVM adapter consumes.
type EVMReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

type ethReader struct {
	client *ethclient.Client
}

// NewEVMReader wraps an ethclient as an EVMReader.
func NewEVMReader(client *ethclient.Client) EVMReader {
	return &ethReader{client: client}
}

func (r *ethReader) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return r.client.BalanceAt(ctx, account, nil)
}

func (r *ethReader) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return r.client.SuggestGasPrice(ctx)
}

func (r *ethReader) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return r.client.PendingNonceAt(ctx, account)
}

// EVMAdapter submits native-coin transfers on EVM chains.
type EVMAdapter struct {
	wallet EVMWallet
	reader EVMReader
	log    logger.Logger
}

func NewEVMAdapter(wallet EVMWallet, reader EVMReader, log logger.Logger) *EVMAdapter {
	return &EVMAdapter{wallet: wallet, reader: reader, log: log}
}

func (a *EVMAdapter) Chain() types.Chain { return types.ChainEVM }

func (a *EVMAdapter) Submit(ctx context.Context, it *types.PaymentIntent) (*types.SubmittedTransaction, error) {
	if !a.wallet.Connected() {
		return nil, types.NewError(types.ErrWalletNotConnected, "EVM wallet is not connected")
	}

	wei, err := utils.ToBaseUnits(it.Amount, it.Chain.NativeDecimals())
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidAmount, "amount below one wei", err)
	}

	sender := a.wallet.Account()
	balance, err := a.reader.BalanceAt(ctx, sender)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "balance lookup failed", err)
	}

	gasPrice, err := a.reader.SuggestGasPrice(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "gas price lookup failed", err)
	}

	gasCost := new(big.Int).Mul(gasPrice, big.NewInt(evmTransferGas))
	required := new(big.Int).Add(wei, gasCost)
	if balance.Cmp(required) < 0 {
		return nil, types.Errorf(types.ErrInsufficientFunds,
			"balance %s wei is below %s plus gas", balance, wei)
	}

	nonce, err := a.reader.PendingNonceAt(ctx, sender)
	if err != nil {
		return nil, types.WrapError(types.ErrSubmissionFailed, "nonce lookup failed", err)
	}

	to := common.HexToAddress(it.Recipient)
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    wei,
		Gas:      evmTransferGas,
		GasPrice: gasPrice,
	})

	hash, err := a.wallet.SignAndSend(ctx, tx)
	if err != nil {
		return nil, submissionError(err)
	}

	a.log.Info("evm transfer submitted", map[string]any{
		"hash": hash.Hex(),
		"wei":  wei.String(),
	})

	return &types.SubmittedTransaction{
		Chain:       it.Chain,
		TxID:        hash.Hex(),
		SubmittedAt: time.Now().UTC(),
	}, nil
}
