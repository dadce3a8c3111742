package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestVoucherSigner_SignAndRecover(t *testing.T) {
	domain := VoucherDomain(big.NewInt(8453), common.HexToAddress("0x0000000000000000000000000000000000001234"))
	signer, err := NewVoucherSigner("0x"+testKey, domain)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.Address())

	voucher := geoplet.Voucher{
		To:       common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Fid:      big.NewInt(1234),
		Nonce:    big.NewInt(99),
		Deadline: big.NewInt(1700000600),
	}

	sig, err := signer.Sign(voucher)
	require.NoError(t, err)

	addr, err := RecoverVoucherSigner(domain, voucher, sig)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), addr)

	// Any change of the voucher or the domain yields another signer.
	tampered := voucher
	tampered.Fid = big.NewInt(1235)
	addr, err = RecoverVoucherSigner(domain, tampered, sig)
	require.NoError(t, err)
	require.NotEqual(t, signer.Address(), addr)

	otherChain := VoucherDomain(big.NewInt(1), domain.VerifyingContract)
	addr, err = RecoverVoucherSigner(otherChain, voucher, sig)
	require.NoError(t, err)
	require.NotEqual(t, signer.Address(), addr)
}
