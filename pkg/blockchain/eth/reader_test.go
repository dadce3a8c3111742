package eth_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/mocks"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type revertErr struct{ data string }

func (e revertErr) Error() string          { return "execution reverted" }
func (e revertErr) ErrorCode() int         { return 3 }
func (e revertErr) ErrorData() interface{} { return e.data }

func TestGeopletReader_OwnerOf(t *testing.T) {
	parsed, err := geoplet.ABI()
	require.NoError(t, err)

	owner := common.HexToAddress("0x3333333333333333333333333333333333333333")
	ownerOut, err := parsed.Methods[geoplet.MethodOwnerOf].Outputs.Pack(owner)
	require.NoError(t, err)

	mintedCall, err := geoplet.PackOwnerOf(big.NewInt(1))
	require.NoError(t, err)

	client := &mocks.EthClient{}
	client.On("CallContract", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return bytes.Equal(msg.Data, mintedCall)
	}), mock.Anything).Return(ownerOut, nil)
	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, revertErr{data: "0x7e273289"}).Once()

	reader := eth.NewGeopletReader(client, common.HexToAddress("0x999999cf1046e68e36E1aA2E0E07105eDDD1f08E"))

	got, found, err := reader.OwnerOf(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, owner, got)

	_, found, err = reader.OwnerOf(context.Background(), big.NewInt(2))
	require.NoError(t, err)
	require.False(t, found)
}

func TestGeopletReader_OwnerOfNetworkError(t *testing.T) {
	client := &mocks.EthClient{}
	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	reader := eth.NewGeopletReader(client, common.Address{})
	_, _, err := reader.OwnerOf(context.Background(), big.NewInt(2))
	require.Error(t, err)
}
