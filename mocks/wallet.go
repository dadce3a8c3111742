package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/mock"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type Wallet struct {
	mock.Mock
}

func (w *Wallet) Address() common.Address {
	args := w.Called()
	return args.Get(0).(common.Address)
}

func (w *Wallet) SignTx(arg1 context.Context, arg2 *ethtypes.Transaction, arg3 *big.Int) (*ethtypes.Transaction, error) {
	args := w.Called(arg1, arg2, arg3)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ethtypes.Transaction), args.Error(1)
}

func (w *Wallet) SignTypedData(arg1 context.Context, arg2 apitypes.TypedData) ([]byte, error) {
	args := w.Called(arg1, arg2)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
