package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ErrUserRejected is returned by wallets when the holder declines to sign.
var ErrUserRejected = errors.New("user rejected the request")

type Wallet interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
	SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error)
}

type localWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalWallet signs with a raw private key. It never rejects.
func NewLocalWallet(hexKey string) (*localWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, err
	}

	return &localWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (w *localWallet) Address() common.Address {
	return w.address
}

func (w *localWallet) SignTx(
	ctx context.Context, tx *ethtypes.Transaction, chainID *big.Int,
) (*ethtypes.Transaction, error) {
	return ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), w.key)
}

func (w *localWallet) SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error) {
	return SignTypedData(w.key, td)
}
