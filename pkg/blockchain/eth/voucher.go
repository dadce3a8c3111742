package eth

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/geoplet/backend/contract/geoplet"
)

const (
	VoucherDomainName    = "Geoplets"
	VoucherDomainVersion = "1"
	VoucherPrimaryType   = "MintVoucher"
)

var voucherFields = []apitypes.Type{
	{Name: "to", Type: "address"},
	{Name: "fid", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "deadline", Type: "uint256"},
}

func VoucherDomain(chainID *big.Int, contract common.Address) Domain {
	return Domain{
		Name:              VoucherDomainName,
		Version:           VoucherDomainVersion,
		ChainID:           chainID,
		VerifyingContract: contract,
	}
}

func VoucherTypedData(domain Domain, v geoplet.Voucher) apitypes.TypedData {
	return NewTypedData(domain, VoucherPrimaryType, voucherFields, apitypes.TypedDataMessage{
		"to":       v.To.Hex(),
		"fid":      v.Fid.String(),
		"nonce":    v.Nonce.String(),
		"deadline": v.Deadline.String(),
	})
}

// VoucherSigner holds the server side key authorizing mints.
type VoucherSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	domain  Domain
}

func NewVoucherSigner(hexKey string, domain Domain) (*VoucherSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, err
	}

	return &VoucherSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		domain:  domain,
	}, nil
}

func (s *VoucherSigner) Address() common.Address {
	return s.address
}

func (s *VoucherSigner) Domain() Domain {
	return s.domain
}

func (s *VoucherSigner) Sign(v geoplet.Voucher) ([]byte, error) {
	return SignTypedData(s.key, VoucherTypedData(s.domain, v))
}

func RecoverVoucherSigner(domain Domain, v geoplet.Voucher, signature []byte) (common.Address, error) {
	return RecoverTypedData(VoucherTypedData(domain, v), signature)
}
