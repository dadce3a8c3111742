package eth

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/geoplet/backend/pkg/xcontext"
)

const MaxReceiptRetry = 5

// NewContractTx builds an unsigned call to a contract with fresh nonce and fees.
func NewContractTx(
	ctx context.Context,
	client EthClient,
	from, to common.Address,
	data []byte,
	gas uint64,
	useEip1559 bool,
	chainID *big.Int,
) (*ethtypes.Transaction, error) {
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	if useEip1559 {
		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, err
		}

		// Chains without a base fee only accept legacy transactions.
		if header.BaseFee != nil {
			tip, err := client.SuggestGasTipCap(ctx)
			if err != nil {
				return nil, err
			}

			feeCap := new(big.Int).Add(tip, new(big.Int).Mul(header.BaseFee, big.NewInt(2)))
			return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
				ChainID:   chainID,
				Nonce:     nonce,
				To:        &to,
				Gas:       gas,
				GasTipCap: tip,
				GasFeeCap: feeCap,
				Data:      data,
			}), nil
		}
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	}), nil
}

// WaitForReceipt polls until the transaction is mined or ctx is done. A
// receipt not found yet is not an error; other rpc errors are tolerated up to
// MaxReceiptRetry times in a row.
func WaitForReceipt(
	ctx context.Context, client EthClient, hash common.Hash, interval time.Duration,
) (*ethtypes.Receipt, error) {
	failures := 0
	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		if err != nil && !errors.Is(err, ethereum.NotFound) {
			failures++
			xcontext.Logger(ctx).Warnf("Cannot get receipt for tx hash %s: %v", hash.Hex(), err)
			if failures > MaxReceiptRetry {
				return nil, err
			}
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
