package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"
)

// The "Ether Mail" example of EIP-712.
func mailTypedData() apitypes.TypedData {
	domain := Domain{
		Name:              "Ether Mail",
		Version:           "1",
		ChainID:           big.NewInt(1),
		VerifyingContract: common.HexToAddress("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"),
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"Person": {
				{Name: "name", Type: "string"},
				{Name: "wallet", Type: "address"},
			},
			"Mail": {
				{Name: "from", Type: "Person"},
				{Name: "to", Type: "Person"},
				{Name: "contents", Type: "string"},
			},
		},
		PrimaryType: "Mail",
		Domain:      domain.typed(),
		Message: apitypes.TypedDataMessage{
			"from": map[string]any{
				"name":   "Cow",
				"wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826",
			},
			"to": map[string]any{
				"name":   "Bob",
				"wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
			},
			"contents": "Hello, Bob!",
		},
	}
}

func TestTypedDataHash_EIP712Vector(t *testing.T) {
	hash, err := TypedDataHash(mailTypedData())
	require.NoError(t, err)
	require.Equal(t,
		"0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2",
		hexutil.Encode(hash))
}

func TestSignTypedData_Recover(t *testing.T) {
	key := crypto.ToECDSAUnsafe(crypto.Keccak256([]byte("cow")))
	td := mailTypedData()

	sig, err := SignTypedData(key, td)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.True(t, sig[64] == 27 || sig[64] == 28)

	addr, err := RecoverTypedData(td, sig)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"), addr)

	_, err = RecoverTypedData(td, sig[:64])
	require.Error(t, err)
}
