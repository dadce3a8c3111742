package eth_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/geoplet/backend/mocks"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	txFrom = common.HexToAddress("0x1111111111111111111111111111111111111111")
	txTo   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestNewContractTx_DynamicFee(t *testing.T) {
	client := &mocks.EthClient{}
	client.On("PendingNonceAt", mock.Anything, txFrom).Return(uint64(4), nil)
	client.On("HeaderByNumber", mock.Anything, mock.Anything).Return(&ethtypes.Header{BaseFee: big.NewInt(10)}, nil)
	client.On("SuggestGasTipCap", mock.Anything).Return(big.NewInt(2), nil)

	tx, err := eth.NewContractTx(context.Background(), client, txFrom, txTo, []byte{1}, 21_000, true, big.NewInt(8453))
	require.NoError(t, err)
	require.Equal(t, uint8(ethtypes.DynamicFeeTxType), tx.Type())
	require.Equal(t, uint64(4), tx.Nonce())
	require.Equal(t, big.NewInt(22), tx.GasFeeCap())
	require.Equal(t, big.NewInt(2), tx.GasTipCap())
}

func TestNewContractTx_NoBaseFeeFallsBackToLegacy(t *testing.T) {
	client := &mocks.EthClient{}
	client.On("PendingNonceAt", mock.Anything, txFrom).Return(uint64(4), nil)
	client.On("HeaderByNumber", mock.Anything, mock.Anything).Return(&ethtypes.Header{}, nil)
	client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(7), nil)

	tx, err := eth.NewContractTx(context.Background(), client, txFrom, txTo, []byte{1}, 21_000, true, big.NewInt(8453))
	require.NoError(t, err)
	require.Equal(t, uint8(ethtypes.LegacyTxType), tx.Type())
	require.Equal(t, big.NewInt(7), tx.GasPrice())
	client.AssertNotCalled(t, "SuggestGasTipCap", mock.Anything)
}
