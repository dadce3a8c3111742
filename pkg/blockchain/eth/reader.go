package eth

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/contract/erc20"
	"github.com/geoplet/backend/contract/geoplet"
)

// IsRevert reports whether err is an execution revert rather than a transport
// failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := RevertData(err); ok {
		return true
	}

	return strings.Contains(err.Error(), "execution reverted")
}

// GeopletReader reads the state of the Geoplets contract.
type GeopletReader struct {
	client   EthClient
	contract common.Address
}

func NewGeopletReader(client EthClient, contract common.Address) *GeopletReader {
	return &GeopletReader{client: client, contract: contract}
}

// OwnerOf returns the owner of the token minted for fid. Since ownerOf
// reverts for unknown tokens, found is false when the call reverts.
func (r *GeopletReader) OwnerOf(ctx context.Context, fid *big.Int) (owner common.Address, found bool, err error) {
	data, err := geoplet.PackOwnerOf(fid)
	if err != nil {
		return common.Address{}, false, err
	}

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	if err != nil {
		if IsRevert(err) {
			return common.Address{}, false, nil
		}

		return common.Address{}, false, err
	}

	owner, err = geoplet.UnpackOwnerOf(out)
	if err != nil {
		return common.Address{}, false, err
	}

	return owner, owner != (common.Address{}), nil
}

// TokenURI reads tokenURI(tokenID) on any ERC-721 contract.
func TokenURI(ctx context.Context, client EthClient, contract common.Address, tokenID *big.Int) (string, error) {
	data, err := geoplet.PackTokenURI(tokenID)
	if err != nil {
		return "", err
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return "", err
	}

	if len(out) == 0 {
		return "", errors.New("empty tokenURI result")
	}

	return geoplet.UnpackTokenURI(out)
}

func BalanceOf(ctx context.Context, client EthClient, token, account common.Address) (*big.Int, error) {
	data, err := erc20.PackBalanceOf(account)
	if err != nil {
		return nil, err
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	return erc20.UnpackBalanceOf(out)
}
